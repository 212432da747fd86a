// Package seed loads the sample organic catalog and the default admin account.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ariefcatur/go-organic-store/internal/auth"
	"github.com/ariefcatur/go-organic-store/internal/orders"
)

const (
	AdminEmail    = "admin@organicfood.com"
	AdminPassword = "admin123"
)

type category struct {
	key, name, description, image string
}

type product struct {
	category    string
	name        string
	description string
	price       float64
	image       string
	stock       int
	farm        string
}

var categories = []category{
	{"veg", "Fresh Vegetables", "Organic vegetables freshly harvested from local farms", "https://images.unsplash.com/photo-1540420773420-3366772f4999"},
	{"fruit", "Fresh Fruits", "Seasonal organic fruits packed with natural goodness", "https://images.unsplash.com/photo-1598471338675-f3c09a43cda1"},
	{"dairy", "Dairy Products", "Fresh dairy products from grass-fed organic farms", "https://images.unsplash.com/photo-1634141510639-d691d86f47de"},
	{"grains", "Grains & Cereals", "Wholesome organic grains and cereals", "https://images.unsplash.com/photo-1562437243-4117943e59b8"},
}

var products = []product{
	{"veg", "Organic Spinach (Palak)", "Fresh organic spinach leaves rich in iron and vitamins", 80, "https://images.unsplash.com/photo-1576045057995-568f588f82fb", 50, "Green Valley Farm, Punjab"},
	{"veg", "Organic Carrots (Gajar)", "Sweet and crunchy organic carrots", 120, "https://images.unsplash.com/photo-1582515073490-39981397c445", 75, "Himalayan Organic Farm"},
	{"veg", "Organic Tomatoes", "Fresh organic tomatoes perfect for cooking", 90, "https://images.unsplash.com/photo-1546470427-e212b9d65c8c", 60, "Nashik Organic Valley"},
	{"veg", "Organic Onions (Pyaaz)", "Chemical-free red onions from certified organic farms", 70, "https://images.unsplash.com/photo-1518977822534-7049a61b1936", 100, "Maharashtra Organic Farms"},
	{"veg", "Organic Cauliflower (Gobhi)", "Fresh organic cauliflower grown without pesticides", 85, "https://images.unsplash.com/photo-1568584711271-95c67199f895", 40, "Punjab Natural Farms"},
	{"fruit", "Organic Strawberries", "Juicy organic strawberries picked at peak ripeness", 450, "https://images.unsplash.com/photo-1598471338675-f3c09a43cda1", 30, "Himachal Berry Farms"},
	{"fruit", "Organic Apples (Seb)", "Crisp organic apples from Kashmir valley", 280, "https://images.unsplash.com/photo-1560806887-1e4cd0b6cbd6", 80, "Kashmir Organic Orchards"},
	{"fruit", "Organic Bananas (Kela)", "Sweet organic bananas rich in potassium", 60, "https://images.unsplash.com/photo-1571771894821-ce9b6c11b08e", 120, "Kerala Organic Plantations"},
	{"fruit", "Organic Mangoes (Aam)", "King of fruits - organic Alphonso mangoes", 320, "https://images.unsplash.com/photo-1605664515728-4e747d50c4c9", 45, "Ratnagiri Organic Farms"},
	{"dairy", "Organic Milk (Doodh)", "Fresh organic whole milk from grass-fed desi cows", 80, "https://images.unsplash.com/photo-1634141510639-d691d86f47de", 25, "Gir Cow Dairy, Gujarat"},
	{"dairy", "Organic Ghee", "Pure organic cow ghee made using traditional methods", 650, "https://images.unsplash.com/photo-1628088062854-d1870b4553da", 35, "Vrindavan Organic Dairy"},
	{"dairy", "Organic Paneer", "Fresh organic cottage cheese made from pure milk", 180, "https://images.unsplash.com/photo-1631452180519-c014fe946bc7", 20, "Amul Organic"},
	{"grains", "Organic Basmati Rice", "Premium organic basmati rice with authentic aroma", 220, "https://images.unsplash.com/photo-1586201375761-83865001e31c", 100, "Haryana Organic Mills"},
	{"grains", "Organic Wheat Flour (Atta)", "Stone-ground organic wheat flour for healthy rotis", 85, "https://images.unsplash.com/photo-1574323347407-f5e1ad6d020b", 150, "Punjab Organic Farms"},
	{"grains", "Organic Toor Dal", "Premium organic yellow lentils rich in protein", 140, "https://images.unsplash.com/photo-1596797038530-2c107229654b", 80, "Rajasthan Organic Co-op"},
	{"grains", "Organic Moong Dal", "Organic green gram dal perfect for daily meals", 160, "https://images.unsplash.com/photo-1596797038530-2c107229654b", 70, "Maharashtra Organic Mills"},
	{"grains", "Organic Quinoa", "Superfood organic quinoa rich in protein and fiber", 380, "https://images.unsplash.com/photo-1586444248902-2f64eddc13df", 40, "Himalayan Organic Farms"},
}

// Run seeds the store unless categories already exist. It reports whether
// anything was written.
func Run(ctx context.Context, store orders.Store) (bool, error) {
	n, err := store.CountCategories(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	now := time.Now().UTC()
	ids := make(map[string]string, len(categories))
	for i, c := range categories {
		cat := orders.Category{
			ID:          uuid.NewString(),
			Name:        c.name,
			Description: c.description,
			ImageURL:    c.image,
			CreatedAt:   now.Add(time.Duration(i) * time.Millisecond),
		}
		if err := store.CreateCategory(ctx, cat); err != nil {
			return false, fmt.Errorf("seed category %s: %w", c.name, err)
		}
		ids[c.key] = cat.ID
	}

	for i, p := range products {
		farm := p.farm
		prod := orders.Product{
			ID:                   uuid.NewString(),
			Name:                 p.name,
			Description:          p.description,
			Price:                p.price,
			CategoryID:           ids[p.category],
			ImageURL:             p.image,
			StockQuantity:        p.stock,
			OrganicCertification: true,
			FarmOrigin:           &farm,
			CreatedAt:            now.Add(time.Duration(i) * time.Millisecond),
		}
		if err := store.CreateProduct(ctx, prod); err != nil {
			return false, fmt.Errorf("seed product %s: %w", p.name, err)
		}
	}

	hash, err := auth.HashPassword(AdminPassword)
	if err != nil {
		return false, err
	}
	admin := orders.User{ID: uuid.NewString(), Email: AdminEmail, Name: "System Admin", Role: orders.RoleAdmin, CreatedAt: now}
	if err := store.CreateUser(ctx, admin, hash); err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	return true, nil
}
