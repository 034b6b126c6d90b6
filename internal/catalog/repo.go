package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

type Repo struct{ DB *pgxpool.Pool }

func newID(prefix string) string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return prefix + "-" + ts + "-" + random
}

// ---- products ----

func (r *Repo) ListProducts(ctx context.Context, query, sortKey string, reverse bool, limit int) ([]*Product, error) {
	if limit <= 0 {
		limit = 100
	}
	sql := `SELECT id FROM products WHERE available_for_sale`
	args := []any{}
	if query != "" {
		args = append(args, "%"+query+"%")
		sql += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}

	// Real price sorting would need a variant join; title is the stand-in
	// the storefront accepts for PRICE and BEST_SELLING.
	col := "created_at"
	switch sortKey {
	case "TITLE", "PRICE", "BEST_SELLING":
		col = "title"
	}
	dir := "ASC"
	if reverse {
		dir = "DESC"
	}
	args = append(args, limit)
	sql += fmt.Sprintf(" ORDER BY %s %s LIMIT $%d", col, dir, len(args))

	return r.loadProducts(ctx, sql, args...)
}

func (r *Repo) GetProductByHandle(ctx context.Context, handle string) (*Product, error) {
	return r.loadProduct(ctx, `SELECT id FROM products WHERE handle=$1`, handle)
}

func (r *Repo) GetProductByID(ctx context.Context, id string) (*Product, error) {
	return r.loadProduct(ctx, `SELECT id FROM products WHERE id=$1`, id)
}

// Recommendations returns up to four available products sharing the product
// type or vendor of the given one.
func (r *Repo) Recommendations(ctx context.Context, handle string) ([]*Product, error) {
	var id string
	var ptype, vendor *string
	err := r.DB.QueryRow(ctx,
		`SELECT id, product_type, vendor FROM products WHERE handle=$1`, handle,
	).Scan(&id, &ptype, &vendor)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.loadProducts(ctx, `
		SELECT id FROM products
		WHERE id <> $1 AND available_for_sale
		  AND (product_type = $2 OR vendor = $3)
		ORDER BY created_at DESC LIMIT 4`, id, ptype, vendor)
}

func (r *Repo) loadProducts(ctx context.Context, sql string, args ...any) ([]*Product, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*Product, 0, len(ids))
	for _, id := range ids {
		p, err := r.loadProduct(ctx, `SELECT id FROM products WHERE id=$1`, id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// loadProduct assembles a product with variants, options and images.
func (r *Repo) loadProduct(ctx context.Context, idQuery string, args ...any) (*Product, error) {
	var id string
	if err := r.DB.QueryRow(ctx, idQuery, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	p := &Product{}
	err := r.DB.QueryRow(ctx, `
		SELECT id, handle, title, description, description_html, vendor, product_type,
		       tags, available_for_sale, created_at, updated_at
		FROM products WHERE id=$1`, id,
	).Scan(&p.ID, &p.Handle, &p.Title, &p.Description, &p.DescriptionHTML,
		&p.Vendor, &p.ProductType, &p.Tags, &p.AvailableForSale, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	p.SEO = SEO{Title: &p.Title, Description: p.Description}

	rows, err := r.DB.Query(ctx, `
		SELECT id, title, sku, price_amount, price_currency, compare_at_price,
		       available_for_sale, quantity_available, selected_options
		FROM product_variants WHERE product_id=$1 ORDER BY created_at`, id)
	if err != nil {
		return nil, err
	}
	var minPrice, maxPrice float64
	currency := "XOF"
	for rows.Next() {
		var v ProductVariant
		var priceAmount, priceCurrency string
		var compareAt *string
		if err := rows.Scan(&v.ID, &v.Title, &v.SKU, &priceAmount, &priceCurrency,
			&compareAt, &v.AvailableForSale, &v.QuantityAvailable, &v.SelectedOptions); err != nil {
			rows.Close()
			return nil, err
		}
		v.Price = Money{Amount: priceAmount, CurrencyCode: priceCurrency}
		if compareAt != nil {
			v.CompareAtPrice = &Money{Amount: *compareAt, CurrencyCode: priceCurrency}
		}
		if v.SelectedOptions == nil {
			v.SelectedOptions = []SelectedOption{}
		}
		if f, err := strconv.ParseFloat(priceAmount, 64); err == nil {
			if len(p.Variants) == 0 || f < minPrice {
				minPrice = f
			}
			if f > maxPrice {
				maxPrice = f
			}
		}
		currency = priceCurrency
		p.Variants = append(p.Variants, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	p.PriceRange = PriceRange{
		MinVariantPrice: Money{Amount: trimFloat(minPrice), CurrencyCode: currency},
		MaxVariantPrice: Money{Amount: trimFloat(maxPrice), CurrencyCode: currency},
	}

	rows, err = r.DB.Query(ctx, `
		SELECT id, name, option_values FROM product_options
		WHERE product_id=$1 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var o ProductOption
		if err := rows.Scan(&o.ID, &o.Name, &o.Values); err != nil {
			rows.Close()
			return nil, err
		}
		p.Options = append(p.Options, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.DB.Query(ctx, `
		SELECT url, alt_text, width, height FROM product_images
		WHERE product_id=$1 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.URL, &img.AltText, &img.Width, &img.Height); err != nil {
			rows.Close()
			return nil, err
		}
		p.Images = append(p.Images, img)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(p.Images) > 0 {
		p.FeaturedImage = &p.Images[0]
	}
	return p, nil
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// CreateProduct writes the product and all its relations in one transaction,
// all-or-nothing.
func (r *Repo) CreateProduct(ctx context.Context, in *CreateProductInput) (*Product, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	productID := newID("prod")
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO products (id, handle, title, description, description_html, vendor, product_type, tags)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		productID, in.Handle, in.Title, in.Description, in.DescriptionHTML,
		in.Vendor, in.ProductType, tags)
	if err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}

	for _, v := range in.Variants {
		currency := v.PriceCurrency
		if currency == "" {
			currency = "XOF"
		}
		opts := v.SelectedOptions
		if opts == nil {
			opts = []SelectedOption{}
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO product_variants (id, product_id, title, sku, price_amount, price_currency,
				compare_at_price, quantity_available, selected_options)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			newID("var"), productID, v.Title, v.SKU, v.PriceAmount, currency,
			v.CompareAtPrice, v.QuantityAvailable, opts)
		if err != nil {
			return nil, fmt.Errorf("insert variant: %w", err)
		}
	}

	for i, o := range in.Options {
		_, err = tx.Exec(ctx, `
			INSERT INTO product_options (id, product_id, name, position, option_values)
			VALUES ($1,$2,$3,$4,$5)`,
			newID("opt"), productID, o.Name, i, o.Values)
		if err != nil {
			return nil, fmt.Errorf("insert option: %w", err)
		}
	}

	for i, img := range in.Images {
		_, err = tx.Exec(ctx, `
			INSERT INTO product_images (id, product_id, url, alt_text, width, height, position)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			newID("img"), productID, img.URL, img.AltText, img.Width, img.Height, i)
		if err != nil {
			return nil, fmt.Errorf("insert image: %w", err)
		}
	}

	for _, collectionID := range in.CollectionIDs {
		_, err = tx.Exec(ctx, `
			INSERT INTO collection_products (collection_id, product_id) VALUES ($1,$2)`,
			collectionID, productID)
		if err != nil {
			return nil, fmt.Errorf("link collection: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetProductByID(ctx, productID)
}

func (r *Repo) UpdateProduct(ctx context.Context, id string, in *CreateProductInput) (*Product, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	tag, err := tx.Exec(ctx, `
		UPDATE products
		SET handle=$2, title=$3, description=$4, description_html=$5,
		    vendor=$6, product_type=$7, tags=$8, updated_at=now()
		WHERE id=$1`,
		id, in.Handle, in.Title, in.Description, in.DescriptionHTML,
		in.Vendor, in.ProductType, tags)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	// Variants are replaced wholesale when provided.
	if in.Variants != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM product_variants WHERE product_id=$1`, id); err != nil {
			return nil, err
		}
		for _, v := range in.Variants {
			currency := v.PriceCurrency
			if currency == "" {
				currency = "XOF"
			}
			opts := v.SelectedOptions
			if opts == nil {
				opts = []SelectedOption{}
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO product_variants (id, product_id, title, sku, price_amount, price_currency,
					compare_at_price, quantity_available, selected_options)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
				newID("var"), id, v.Title, v.SKU, v.PriceAmount, currency,
				v.CompareAtPrice, v.QuantityAvailable, opts)
			if err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetProductByID(ctx, id)
}

func (r *Repo) DeleteProduct(ctx context.Context, id string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- collections ----

func (r *Repo) ListCollections(ctx context.Context) ([]*Collection, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, handle, title, description, image_url, seo_title, seo_description, updated_at
		FROM collections ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) GetCollectionByHandle(ctx context.Context, handle string) (*Collection, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT id, handle, title, description, image_url, seo_title, seo_description, updated_at
		FROM collections WHERE handle=$1`, handle)
	c, err := scanCollection(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Repo) CollectionProducts(ctx context.Context, handle string, limit int) ([]*Product, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.loadProducts(ctx, `
		SELECT p.id FROM products p
		JOIN collection_products cp ON cp.product_id = p.id
		JOIN collections c ON c.id = cp.collection_id
		WHERE c.handle=$1 AND p.available_for_sale
		ORDER BY cp.position, p.created_at DESC
		LIMIT $2`, handle, limit)
}

func (r *Repo) CreateCollection(ctx context.Context, in *CreateCollectionInput) (*Collection, error) {
	id := newID("coll")
	_, err := r.DB.Exec(ctx, `
		INSERT INTO collections (id, handle, title, description, image_url, seo_title, seo_description)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		id, in.Handle, in.Title, in.Description, in.ImageURL, in.SEOTitle, in.SEODescription)
	if err != nil {
		return nil, fmt.Errorf("insert collection: %w", err)
	}
	return r.GetCollectionByHandle(ctx, in.Handle)
}

func (r *Repo) DeleteCollection(ctx context.Context, id string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM collections WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCollection(row pgx.Row) (*Collection, error) {
	c := &Collection{}
	var imageURL *string
	err := row.Scan(&c.ID, &c.Handle, &c.Title, &c.Description, &imageURL,
		&c.SEO.Title, &c.SEO.Description, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if imageURL != nil {
		c.Image = &Image{URL: *imageURL}
	}
	c.Path = "/search/" + c.Handle
	return c, nil
}

// ---- menus & pages ----

// GetMenu returns the menu items for a handle; an unknown handle yields an
// empty menu, not an error.
func (r *Repo) GetMenu(ctx context.Context, handle string) ([]MenuItem, error) {
	var items []MenuItem
	err := r.DB.QueryRow(ctx, `SELECT items FROM menus WHERE handle=$1`, handle).Scan(&items)
	if errors.Is(err, pgx.ErrNoRows) {
		return []MenuItem{}, nil
	}
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []MenuItem{}
	}
	return items, nil
}

func (r *Repo) ListMenus(ctx context.Context) (map[string][]MenuItem, error) {
	rows, err := r.DB.Query(ctx, `SELECT handle, items FROM menus`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]MenuItem{}
	for rows.Next() {
		var handle string
		var items []MenuItem
		if err := rows.Scan(&handle, &items); err != nil {
			return nil, err
		}
		out[handle] = items
	}
	return out, rows.Err()
}

func (r *Repo) UpsertMenu(ctx context.Context, handle string, items []MenuItem) error {
	if items == nil {
		items = []MenuItem{}
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO menus (id, handle, items) VALUES ($1,$2,$3)
		ON CONFLICT (handle) DO UPDATE SET items = EXCLUDED.items`,
		newID("menu"), handle, items)
	return err
}

func (r *Repo) ListPages(ctx context.Context) ([]*Page, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, handle, title, body, body_html, seo_title, seo_description, created_at, updated_at
		FROM pages ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Page
	for rows.Next() {
		p, err := scanPage(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) GetPageByHandle(ctx context.Context, handle string) (*Page, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT id, handle, title, body, body_html, seo_title, seo_description, created_at, updated_at
		FROM pages WHERE handle=$1`, handle)
	p, err := scanPage(row, true)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanPage(row pgx.Row, preferHTML bool) (*Page, error) {
	p := &Page{}
	var body, bodyHTML, seoTitle, seoDesc *string
	err := row.Scan(&p.ID, &p.Handle, &p.Title, &body, &bodyHTML, &seoTitle, &seoDesc,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	plain := ""
	if body != nil {
		plain = *body
	}
	p.Body = plain
	if preferHTML && bodyHTML != nil && *bodyHTML != "" {
		p.Body = *bodyHTML
	}
	if len(plain) > 150 {
		plain = plain[:150]
	}
	p.BodySummary = plain + "..."
	if seoTitle == nil {
		seoTitle = &p.Title
	}
	p.SEO = SEO{Title: seoTitle, Description: seoDesc}
	return p, nil
}
