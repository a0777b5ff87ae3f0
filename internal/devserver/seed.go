package devserver

import (
	"context"
	"errors"
	"fmt"

	"foodfront/internal/models"
	"foodfront/internal/services"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SeedPassword is the password of every seeded account.
const SeedPassword = "password123"

type seedRestaurant struct {
	ownerEmail, ownerFirst, ownerLast string
	name, cuisine, address            string
	menu                              []seedItem
}

type seedItem struct {
	name, category, price string
}

var seedRestaurants = []seedRestaurant{
	{
		ownerEmail: "malay_kitchen_owner@example.com", ownerFirst: "Ahmad", ownerLast: "Abdullah",
		name: "Malay Kitchen", cuisine: "Malay", address: "12 Jalan Tuanku Abdul Rahman, Kuala Lumpur",
		menu: []seedItem{{"Nasi Lemak", "Main", "12.50"}, {"Rendang Daging", "Main", "18.00"}, {"Teh Tarik", "Drinks", "3.50"}},
	},
	{
		ownerEmail: "la_pizza_owner@example.com", ownerFirst: "Luigi", ownerLast: "Rossi",
		name: "La Pizza", cuisine: "Italian", address: "3 Jalan Bukit Bintang, Kuala Lumpur",
		menu: []seedItem{{"Margherita", "Pizza", "28.00"}, {"Diavola", "Pizza", "32.00"}, {"Tiramisu", "Dessert", "16.00"}},
	},
	{
		ownerEmail: "sushi_owner@example.com", ownerFirst: "Sakura", ownerLast: "Tanaka",
		name: "Sushi Zen", cuisine: "Japanese", address: "88 Jalan Ampang, Kuala Lumpur",
		menu: []seedItem{{"Salmon Nigiri", "Sushi", "14.00"}, {"Chicken Katsu Don", "Rice", "22.00"}, {"Green Tea", "Drinks", "4.00"}},
	},
}

var seedPeople = []struct {
	email, first, last string
	role               models.Role
}{
	{"johndoe@gmail.com", "John", "Doe", models.RoleCustomer},
	{"janedoe@gmail.com", "Jane", "Doe", models.RoleCustomer},
	{"rider.ali@example.com", "Ali", "Hassan", models.RoleRider},
	{"rider.mei@example.com", "Mei", "Ling", models.RoleRider},
}

// Seed creates demo accounts, restaurants and menus. Accounts that already
// exist are skipped, so seeding twice is harmless.
func Seed(ctx context.Context, s *Server) error {
	for _, p := range seedPeople {
		if _, err := s.register(ctx, p.email, p.first, p.last, p.role); err != nil {
			return err
		}
	}
	for _, r := range seedRestaurants {
		owner, err := s.register(ctx, r.ownerEmail, r.ownerFirst, r.ownerLast, models.RoleRestaurantOwner)
		if err != nil {
			return err
		}
		if owner == nil {
			continue
		}
		actor := services.Actor{ID: owner.ID, Role: owner.Role}
		if _, err := s.restaurants.CreateRestaurant(ctx, actor, models.RestaurantInput{
			Name:         r.name,
			Description:  fmt.Sprintf("Authentic %s food", r.cuisine),
			Address:      r.address,
			PhoneNumber:  "0312345678",
			CuisineType:  r.cuisine,
			DeliveryTime: "30-45 min",
		}); err != nil {
			return fmt.Errorf("failed to seed restaurant %s: %w", r.name, err)
		}
		for _, it := range r.menu {
			price := decimal.RequireFromString(it.price)
			if _, err := s.restaurants.CreateMenuItem(ctx, actor, models.MenuItemInput{
				Name:     it.name,
				Category: it.category,
				Price:    &price,
			}); err != nil {
				return fmt.Errorf("failed to seed menu item %s: %w", it.name, err)
			}
		}
	}
	s.logger.Info("seeded demo data",
		zap.Int("restaurants", len(seedRestaurants)), zap.Int("accounts", len(seedPeople)+len(seedRestaurants)))
	return nil
}

// register returns nil without error when the account already exists.
func (s *Server) register(ctx context.Context, email, first, last string, role models.Role) (*models.User, error) {
	user, _, err := s.auth.Register(ctx, models.RegisterInput{
		Email:     email,
		Password:  SeedPassword,
		Password2: SeedPassword,
		FirstName: first,
		LastName:  last,
		Role:      role,
	})
	var verr *services.ValidationError
	if errors.As(err, &verr) && verr.Fields["email"] != "" {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to seed account %s: %w", email, err)
	}
	return user, nil
}
