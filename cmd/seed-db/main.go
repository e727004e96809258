// Command seed-db loads categories and products into the database from JSON
// seed files. Files with a .gz suffix are decompressed on the fly.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/ovenfresh/bakery-api/internal/domain/category"
	"github.com/ovenfresh/bakery-api/internal/domain/product"
	"github.com/ovenfresh/bakery-api/internal/domain/user"
	"github.com/ovenfresh/bakery-api/internal/postgres"
)

type categoryJSON struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type userJSON struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type productJSON struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	Offer       decimal.Decimal `json:"productOffer"`
	Category    string          `json:"category"`
	Images      []string        `json:"images"`
}

func main() {
	var (
		databaseURL    string
		categoriesFile string
		productsFile   string
		usersFile      string
		workers        int
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&categoriesFile, "categories-file", "db/seed/categories.json", "path to categories JSON file")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file (.gz supported)")
	flag.StringVar(&usersFile, "users-file", "db/seed/users.json", "path to users JSON file (skipped when absent)")
	flag.IntVar(&workers, "workers", 8, "concurrent product inserts")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, categoriesFile, productsFile, usersFile, workers); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, categoriesFile, productsFile, usersFile string, workers int) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	categories := postgres.NewCategoryRepository(pool)
	products := postgres.NewProductRepository(pool)
	users := postgres.NewUserRepository(pool)

	categoryIDs, err := seedCategories(ctx, categories, categoriesFile)
	if err != nil {
		return errors.Wrap(err, "seed categories")
	}

	if err := seedProducts(ctx, products, categoryIDs, productsFile, workers); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedUsers(ctx, users, usersFile); err != nil {
		return errors.Wrap(err, "seed users")
	}

	return nil
}

// seedUsers creates demo accounts. The file is optional; identity is managed
// by an external auth layer in production.
func seedUsers(ctx context.Context, repo user.Repository, path string) error {
	var us []userJSON
	if err := readSeedFile(path, &us); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Info("users file absent, skipping", slog.String("path", path))
			return nil
		}
		return err
	}

	for _, uj := range us {
		u := &user.User{Name: uj.Name, Email: uj.Email, Phone: uj.Phone}
		if err := repo.Create(ctx, u); err != nil {
			return errors.Wrapf(err, "create user %q", uj.Email)
		}
		slog.Info("user seeded", slog.String("email", u.Email), slog.String("id", u.ID))
	}
	return nil
}

// readSeedFile reads and unmarshals a JSON seed file, transparently
// decompressing .gz files.
func readSeedFile(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open seed file")
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrap(err, "open gzip reader")
		}
		defer gz.Close()
		r = gz
	}

	if err := json.NewDecoder(r).Decode(v); err != nil {
		return errors.Wrap(err, "parse seed JSON")
	}
	return nil
}

// seedCategories creates categories from the seed file, reusing ones that
// already exist, and returns a name to id mapping.
func seedCategories(ctx context.Context, repo category.Repository, path string) (map[string]string, error) {
	slog.Info("reading categories file", slog.String("path", path))

	var cats []categoryJSON
	if err := readSeedFile(path, &cats); err != nil {
		return nil, err
	}

	ids := make(map[string]string, len(cats))
	for _, cj := range cats {
		c := &category.Category{Name: cj.Name, Description: cj.Description}
		err := repo.Create(ctx, c)
		switch {
		case err == nil:
			ids[cj.Name] = c.ID
		case errors.Is(err, category.ErrDuplicateName):
			existing, findErr := repo.FindByName(ctx, cj.Name)
			if findErr != nil {
				return nil, errors.Wrapf(findErr, "find existing category %q", cj.Name)
			}
			ids[cj.Name] = existing.ID
		default:
			return nil, errors.Wrapf(err, "create category %q", cj.Name)
		}
	}

	slog.Info("categories seeded", slog.Int("count", len(ids)))
	return ids, nil
}

// seedProducts inserts products concurrently. A product referencing an
// unknown category fails the whole run.
func seedProducts(ctx context.Context, repo product.Repository, categoryIDs map[string]string, path string, workers int) error {
	slog.Info("reading products file", slog.String("path", path))

	var prods []productJSON
	if err := readSeedFile(path, &prods); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, pj := range prods {
		catID, ok := categoryIDs[pj.Category]
		if !ok {
			return errors.Errorf("product %q references unknown category %q", pj.Name, pj.Category)
		}
		if !product.ValidUnit(product.Unit(pj.Unit)) {
			return errors.Errorf("product %q has invalid unit %q", pj.Name, pj.Unit)
		}

		g.Go(func() error {
			p := &product.Product{
				Name:        pj.Name,
				Description: pj.Description,
				Price:       pj.Price,
				Quantity:    pj.Quantity,
				Unit:        product.Unit(pj.Unit),
				Status:      product.StatusAvailable,
				Offer:       pj.Offer,
				CategoryID:  catID,
				Images:      pj.Images,
			}
			if err := repo.Create(ctx, p); err != nil {
				return errors.Wrapf(err, "create product %q", pj.Name)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("products seeded", slog.Int("count", len(prods)))
	return nil
}
