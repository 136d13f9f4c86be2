package favorites

import (
	"context"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront-core/internal/kvstore"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/types"
)

// Favorite is the product summary kept on a favorites list.
type Favorite struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Image  string  `json:"image"`
	Price  float64 `json:"price"`
	Rating float64 `json:"rating"`
}

// FromProduct summarizes a catalog product.
func FromProduct(p types.Product) Favorite {
	return Favorite{
		ID:     strings.TrimSpace(p.ID),
		Title:  p.Title,
		Image:  p.PrimaryImage(),
		Price:  p.UnitPrice(),
		Rating: p.Rating,
	}
}

type productLoader interface {
	Product(ctx context.Context, id string) (*types.Product, error)
}

// ServiceParams groups dependencies for the favorites service.
type ServiceParams struct {
	State    *kvstore.Store
	Products productLoader
}

// Service manages per-email favorites lists.
type Service interface {
	List(ctx context.Context, email string) ([]Favorite, error)
	Add(ctx context.Context, email, productID string) (bool, error)
	Remove(ctx context.Context, email, productID string) error
	Toggle(ctx context.Context, email, productID string) (bool, error)
	Contains(ctx context.Context, email, productID string) (bool, error)
	Clear(ctx context.Context, email string) error
}

type service struct {
	mu       sync.Mutex
	state    *kvstore.Store
	products productLoader
}

// NewService builds a favorites service. Lists are keyed by email so they
// outlive the session that created them.
func NewService(params ServiceParams) (Service, error) {
	if params.State == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "favorites state store is required")
	}
	if params.Products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product loader is required")
	}
	return &service{state: params.State, products: params.Products}, nil
}

func (s *service) List(ctx context.Context, email string) ([]Favorite, error) {
	key, err := listKey(email)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, key), nil
}

// Add loads the product and appends it unless it is already listed.
func (s *service) Add(ctx context.Context, email, productID string) (bool, error) {
	key, err := listKey(email)
	if err != nil {
		return false, err
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.products.Product(ctx, productID)
	if err != nil {
		return false, err
	}
	fav := FromProduct(*product)
	if fav.ID == "" {
		fav.ID = productID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.load(ctx, key)
	if indexOf(list, fav.ID) >= 0 {
		return false, nil
	}
	return true, s.save(ctx, key, append(list, fav))
}

func (s *service) Remove(ctx context.Context, email, productID string) error {
	key, err := listKey(email)
	if err != nil {
		return err
	}
	productID = strings.TrimSpace(productID)
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.load(ctx, key)
	out := list[:0]
	for _, fav := range list {
		if fav.ID != productID {
			out = append(out, fav)
		}
	}
	return s.save(ctx, key, out)
}

// Toggle adds the product when absent and removes it otherwise. It reports
// whether the product is a favorite afterwards.
func (s *service) Toggle(ctx context.Context, email, productID string) (bool, error) {
	listed, err := s.Contains(ctx, email, productID)
	if err != nil {
		return false, err
	}
	if listed {
		return false, s.Remove(ctx, email, productID)
	}
	if _, err := s.Add(ctx, email, productID); err != nil {
		return false, err
	}
	return true, nil
}

func (s *service) Contains(ctx context.Context, email, productID string) (bool, error) {
	list, err := s.List(ctx, email)
	if err != nil {
		return false, err
	}
	return indexOf(list, strings.TrimSpace(productID)) >= 0, nil
}

func (s *service) Clear(ctx context.Context, email string) error {
	key, err := listKey(email)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, key, []Favorite{})
}

func (s *service) load(ctx context.Context, key string) []Favorite {
	var list []Favorite
	if !s.state.ReadJSON(ctx, key, &list) {
		return []Favorite{}
	}
	return list
}

func (s *service) save(ctx context.Context, key string, list []Favorite) error {
	if err := s.state.WriteJSON(ctx, key, list); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to save favorites")
	}
	return nil
}

func listKey(email string) (string, error) {
	if strings.TrimSpace(email) == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to use favorites")
	}
	return kvstore.FavoritesKey(email), nil
}

func indexOf(list []Favorite, id string) int {
	for i, fav := range list {
		if fav.ID == id {
			return i
		}
	}
	return -1
}
