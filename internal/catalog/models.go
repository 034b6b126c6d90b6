package catalog

import "time"

// Storefront-facing shapes. Field names mirror what the frontend consumes,
// hence the camelCase tags.

type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type SEO struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type Image struct {
	URL     string  `json:"url"`
	AltText *string `json:"altText"`
	Width   *int    `json:"width"`
	Height  *int    `json:"height"`
}

type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type ProductVariant struct {
	ID                string           `json:"id"`
	Title             string           `json:"title"`
	SKU               *string          `json:"sku"`
	AvailableForSale  bool             `json:"availableForSale"`
	QuantityAvailable int              `json:"quantityAvailable"`
	Price             Money            `json:"price"`
	CompareAtPrice    *Money           `json:"compareAtPrice"`
	SelectedOptions   []SelectedOption `json:"selectedOptions"`
}

type ProductOption struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type PriceRange struct {
	MinVariantPrice Money `json:"minVariantPrice"`
	MaxVariantPrice Money `json:"maxVariantPrice"`
}

type Product struct {
	ID               string           `json:"id"`
	Handle           string           `json:"handle"`
	Title            string           `json:"title"`
	Description      *string          `json:"description"`
	DescriptionHTML  *string          `json:"descriptionHtml"`
	Vendor           *string          `json:"vendor"`
	ProductType      *string          `json:"productType"`
	Tags             []string         `json:"tags"`
	AvailableForSale bool             `json:"availableForSale"`
	PriceRange       PriceRange       `json:"priceRange"`
	Variants         []ProductVariant `json:"variants"`
	Options          []ProductOption  `json:"options"`
	Images           []Image          `json:"images"`
	FeaturedImage    *Image           `json:"featuredImage"`
	SEO              SEO              `json:"seo"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

type Collection struct {
	ID          string    `json:"id"`
	Handle      string    `json:"handle"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Image       *Image    `json:"image"`
	SEO         SEO       `json:"seo"`
	Path        string    `json:"path"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type MenuItem struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

type Page struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Handle      string    `json:"handle"`
	Body        string    `json:"body"`
	BodySummary string    `json:"bodySummary"`
	SEO         SEO       `json:"seo"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Admin write inputs.

type VariantInput struct {
	Title             string           `json:"title"`
	SKU               *string          `json:"sku"`
	PriceAmount       string           `json:"priceAmount"`
	PriceCurrency     string           `json:"priceCurrency"`
	CompareAtPrice    *string          `json:"compareAtPrice"`
	QuantityAvailable int              `json:"quantityAvailable"`
	SelectedOptions   []SelectedOption `json:"selectedOptions"`
}

type OptionInput struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type ImageInput struct {
	URL     string  `json:"url"`
	AltText *string `json:"altText"`
	Width   *int    `json:"width"`
	Height  *int    `json:"height"`
}

type CreateProductInput struct {
	Handle          string         `json:"handle"`
	Title           string         `json:"title"`
	Description     *string        `json:"description"`
	DescriptionHTML *string        `json:"descriptionHtml"`
	Vendor          *string        `json:"vendor"`
	ProductType     *string        `json:"productType"`
	Tags            []string       `json:"tags"`
	Variants        []VariantInput `json:"variants"`
	Options         []OptionInput  `json:"options"`
	Images          []ImageInput   `json:"images"`
	CollectionIDs   []string       `json:"collectionIds"`
}

type CreateCollectionInput struct {
	Handle         string  `json:"handle"`
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	ImageURL       *string `json:"imageUrl"`
	SEOTitle       *string `json:"seoTitle"`
	SEODescription *string `json:"seoDescription"`
}
