package service

import (
	"context"
	"fmt"

	"storefront-service/config"
	"storefront-service/internal/models"
	"storefront-service/internal/square"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// maxCatalogPages bounds cursor following against a misbehaving provider.
const maxCatalogPages = 200

// CatalogService fetches the provider catalog and normalizes it into
// storefront products.
type CatalogService struct {
	provider Provider
	cache    Cache
	cfg      *config.Config
	rules    CategoryRules
	logger   *zap.Logger
}

// NewCatalogService creates a catalog service. cache may be nil.
func NewCatalogService(provider Provider, cache Cache, cfg *config.Config) *CatalogService {
	return &CatalogService{
		provider: provider,
		cache:    cache,
		cfg:      cfg,
		rules:    DefaultCategoryRules,
		logger:   util.GetLogger(),
	}
}

// WithCategoryRules replaces the category table.
func (s *CatalogService) WithCategoryRules(rules CategoryRules) *CatalogService {
	s.rules = rules
	return s
}

// CatalogOptions selects the catalog shape.
type CatalogOptions struct {
	// FullDetail enumerates every variation and modifier group.
	FullDetail bool
	// Refresh evicts the cached catalog and reads from the provider.
	Refresh bool
}

// CatalogResult holds the normalized catalog. Products is the public,
// available subset of All.
type CatalogResult struct {
	Products     []models.Product `json:"products"`
	All          []models.Product `json:"all"`
	RawItems     []models.RawItem `json:"rawItems"`
	TotalObjects int              `json:"totalObjects"`
	FromCache    bool             `json:"-"`
}

// FilteredOut lists the items excluded from Products.
func (r *CatalogResult) FilteredOut() []models.Product {
	var out []models.Product
	for _, p := range r.All {
		if !p.Available {
			out = append(out, p)
		}
	}
	return out
}

// GetCatalog returns the normalized catalog, from cache when possible.
func (s *CatalogService) GetCatalog(ctx context.Context, opts CatalogOptions) (*CatalogResult, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetCatalog")
	defer span.End()

	if err := s.cfg.Square.Validate(); err != nil {
		util.CatalogRequestsTotal.WithLabelValues("not_configured").Inc()
		return nil, fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}

	key := catalogCacheKey(opts)
	if s.cache != nil && opts.Refresh {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn("Catalog cache eviction failed", zap.String("key", key), zap.Error(err))
		}
	} else if s.cache != nil {
		var cached CatalogResult
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("Catalog cache read failed", zap.String("key", key), zap.Error(err))
		} else if hit {
			util.CatalogRequestsTotal.WithLabelValues("cache").Inc()
			cached.FromCache = true
			return &cached, nil
		}
	}

	objects, err := s.fetchAll(ctx, catalogTypes(opts))
	if err != nil {
		util.CatalogRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	result := NormalizeCatalog(objects, s.rules, opts.FullDetail, s.cfg.Square.Currency)

	s.logger.Info("Catalog normalized",
		zap.Int("objects", result.TotalObjects),
		zap.Int("items", len(result.All)),
		zap.Int("available", len(result.Products)))
	util.CatalogRequestsTotal.WithLabelValues("provider").Inc()
	util.CatalogProductsServed.Set(float64(len(result.Products)))

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, result, s.cfg.Redis.CacheTTL); err != nil {
			s.logger.Warn("Catalog cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return result, nil
}

// fetchAll follows the listing cursor until the provider stops returning one.
func (s *CatalogService) fetchAll(ctx context.Context, types []string) ([]square.CatalogObject, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Square.Timeout)
	defer cancel()

	var objects []square.CatalogObject
	seen := make(map[string]bool)
	cursor := ""

	for page := 0; page < maxCatalogPages; page++ {
		resp, err := s.provider.ListCatalog(ctx, cursor, types)
		if err != nil {
			return nil, fmt.Errorf("list catalog: %w", err)
		}
		objects = append(objects, resp.Objects...)

		if resp.Cursor == "" || seen[resp.Cursor] {
			return objects, nil
		}
		seen[resp.Cursor] = true
		cursor = resp.Cursor
	}

	s.logger.Warn("Catalog page limit reached", zap.Int("pages", maxCatalogPages))
	return objects, nil
}

func catalogTypes(opts CatalogOptions) []string {
	types := []string{square.ObjectTypeItem, square.ObjectTypeCategory, square.ObjectTypeImage}
	if opts.FullDetail {
		types = append(types, square.ObjectTypeModifierList)
	}
	return types
}

func catalogCacheKey(opts CatalogOptions) string {
	if opts.FullDetail {
		return "catalog:full"
	}
	return "catalog:summary"
}

type modifierList struct {
	name          string
	selectionType string
	options       []models.ModifierOption
}

// NormalizeCatalog maps provider catalog objects into products. Deleted or
// offline items are kept in All and RawItems but excluded from Products.
func NormalizeCatalog(objects []square.CatalogObject, rules CategoryRules, fullDetail bool, defaultCurrency string) *CatalogResult {
	categories := make(map[string]string)
	images := make(map[string]string)
	modifierLists := make(map[string]modifierList)

	for _, obj := range objects {
		switch obj.Type {
		case square.ObjectTypeCategory:
			if obj.CategoryData != nil {
				categories[obj.ID] = obj.CategoryData.Name
			}
		case square.ObjectTypeImage:
			if obj.ImageData != nil {
				images[obj.ID] = obj.ImageData.URL
			}
		case square.ObjectTypeModifierList:
			if obj.ModifierListData != nil {
				modifierLists[obj.ID] = toModifierList(obj.ModifierListData)
			}
		}
	}

	result := &CatalogResult{
		Products:     []models.Product{},
		All:          []models.Product{},
		RawItems:     []models.RawItem{},
		TotalObjects: len(objects),
	}

	for _, obj := range objects {
		if obj.Type != square.ObjectTypeItem {
			continue
		}
		data := obj.ItemData
		if data == nil {
			data = &square.ItemData{}
		}

		categoryID := primaryCategoryID(data)
		result.RawItems = append(result.RawItems, models.RawItem{
			ID:              obj.ID,
			Name:            data.Name,
			IsDeleted:       obj.IsDeleted,
			AvailableOnline: data.AvailableOnline,
			CategoryID:      categoryID,
			VariationsCount: len(data.Variations),
		})

		availableOnline := data.AvailableOnline == nil || *data.AvailableOnline

		product := models.Product{
			ID:          obj.ID,
			Name:        data.Name,
			Description: data.Description,
			Currency:    defaultCurrency,
			Category:    rules.Classify(categories[categoryID]),
			Available:   !obj.IsDeleted && availableOnline,
		}

		if len(data.ImageIDs) > 0 {
			if u, ok := images[data.ImageIDs[0]]; ok && u != "" {
				imageURL := u
				product.ImageURL = &imageURL
			}
		}

		if len(data.Variations) > 0 {
			if price := variationPrice(data.Variations[0]); price != nil {
				product.Price = price.Amount
				product.Currency = price.Currency
			}
		}

		if fullDetail {
			product.Variations = toVariations(data.Variations, defaultCurrency)
			product.ModifierGroups = toModifierGroups(data.ModifierListInfo, modifierLists)
		}

		result.All = append(result.All, product)
		if product.Available {
			result.Products = append(result.Products, product)
		}
	}

	return result
}

func primaryCategoryID(data *square.ItemData) string {
	if data.CategoryID != "" {
		return data.CategoryID
	}
	if len(data.Categories) > 0 {
		return data.Categories[0].ID
	}
	return ""
}

func variationPrice(v square.CatalogObject) *square.Money {
	if v.ItemVariationData == nil {
		return nil
	}
	return v.ItemVariationData.PriceMoney
}

func toVariations(variations []square.CatalogObject, defaultCurrency string) []models.Variation {
	out := make([]models.Variation, 0, len(variations))
	for _, v := range variations {
		if v.IsDeleted || v.Type != square.ObjectTypeItemVariation {
			continue
		}
		mv := models.Variation{ID: v.ID, Currency: defaultCurrency}
		if d := v.ItemVariationData; d != nil {
			mv.Name = d.Name
			mv.SKU = d.SKU
			if d.PriceMoney != nil {
				mv.Price = d.PriceMoney.Amount
				mv.Currency = d.PriceMoney.Currency
			}
		}
		out = append(out, mv)
	}
	return out
}

func toModifierList(data *square.ModifierListData) modifierList {
	ml := modifierList{name: data.Name, selectionType: data.SelectionType}
	for _, m := range data.Modifiers {
		if m.IsDeleted || m.Type != square.ObjectTypeModifier || m.ModifierData == nil {
			continue
		}
		opt := models.ModifierOption{ID: m.ID, Name: m.ModifierData.Name}
		if m.ModifierData.PriceMoney != nil {
			opt.Price = m.ModifierData.PriceMoney.Amount
		}
		ml.options = append(ml.options, opt)
	}
	return ml
}

func toModifierGroups(infos []square.ModifierListInfo, lists map[string]modifierList) []models.ModifierGroup {
	var groups []models.ModifierGroup
	for _, info := range infos {
		if info.Enabled != nil && !*info.Enabled {
			continue
		}
		ml, ok := lists[info.ModifierListID]
		if !ok {
			continue
		}

		minSel, maxSel := 0, len(ml.options)
		if ml.selectionType == "SINGLE" {
			maxSel = 1
		}
		if info.MinSelectedModifiers != nil && *info.MinSelectedModifiers >= 0 {
			minSel = *info.MinSelectedModifiers
		}
		if info.MaxSelectedModifiers != nil && *info.MaxSelectedModifiers >= 0 {
			maxSel = *info.MaxSelectedModifiers
		}

		options := ml.options
		if options == nil {
			options = []models.ModifierOption{}
		}
		groups = append(groups, models.ModifierGroup{
			ID:          info.ModifierListID,
			Name:        ml.name,
			MinSelected: minSel,
			MaxSelected: maxSel,
			Options:     options,
		})
	}
	return groups
}
