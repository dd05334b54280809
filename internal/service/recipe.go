package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	maxRecipeNameLength = 256
	// amounts and cooking times are stored as small integers
	maxSmallValue = 32767
)

// RecipeService handles recipe operations. Every write replaces the recipe's
// tag and ingredient rows inside a single transaction.
type RecipeService struct {
	db     *gorm.DB
	images storage.ImageStore
	logger *zap.Logger
}

// Ensure RecipeService implements IRecipeService
var _ IRecipeService = (*RecipeService)(nil)

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, images storage.ImageStore, logger *zap.Logger) *RecipeService {
	return &RecipeService{
		db:     db,
		images: images,
		logger: logger,
	}
}

// RecipeFilter narrows ListRecipes. IsFavorited and IsInShoppingCart only
// apply when the viewer is authenticated.
type RecipeFilter struct {
	Tags             []string
	AuthorID         uint
	IsFavorited      bool
	IsInShoppingCart bool
}

// validateRecipe checks the payload in a fixed order and stops at the first failure
func validateRecipe(req *types.RecipeRequest, requireImage bool) error {
	if len(req.Tags) == 0 {
		return invalid("tags", msgEmptyTags)
	}
	seenTags := make(map[uint]struct{}, len(req.Tags))
	for _, id := range req.Tags {
		if _, ok := seenTags[id]; ok {
			return invalid("tags", msgRepeatTags)
		}
		seenTags[id] = struct{}{}
	}

	if len(req.Ingredients) == 0 {
		return invalid("ingredients", msgEmptyIngredients)
	}
	seenIngredients := make(map[uint]struct{}, len(req.Ingredients))
	for _, item := range req.Ingredients {
		if _, ok := seenIngredients[item.ID]; ok {
			return invalid("ingredients", msgRepeatIngredients)
		}
		seenIngredients[item.ID] = struct{}{}
	}

	if req.CookingTime < 1 {
		return invalid("cooking_time", msgMinValue)
	}
	if req.CookingTime > maxSmallValue {
		return invalid("cooking_time", msgMaxValue)
	}
	for _, item := range req.Ingredients {
		if item.Amount < 1 {
			return invalid("amount", msgMinValue)
		}
		if item.Amount > maxSmallValue {
			return invalid("amount", msgMaxValue)
		}
	}

	if strings.TrimSpace(req.Name) == "" {
		return invalid("name", msgRequired)
	}
	if utf8.RuneCountInString(req.Name) > maxRecipeNameLength {
		return invalid("name", msgNameTooLong)
	}
	if strings.TrimSpace(req.Text) == "" {
		return invalid("text", msgRequired)
	}
	if requireImage && req.Image == "" {
		return invalid("image", msgRequired)
	}
	return nil
}

// CreateRecipe validates the payload, stores the image and writes the recipe
// with its associations atomically
func (s *RecipeService) CreateRecipe(ctx context.Context, authorID uint, req *types.RecipeRequest) (*types.Recipe, error) {
	if err := validateRecipe(req, true); err != nil {
		return nil, err
	}

	imageURL, err := s.saveImage(ctx, req.Image)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        req.Name,
		Image:       imageURL,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(tx, req); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return err
		}
		return createAssociations(tx, recipe.ID, req)
	})
	if err != nil {
		s.discardImage(ctx, imageURL)
		return nil, err
	}

	s.logger.Info("recipe created", zap.Uint("recipe_id", recipe.ID), zap.Uint("author_id", authorID))
	return s.GetRecipe(ctx, recipe.ID, authorID)
}

// UpdateRecipe replaces the recipe's scalar fields and its whole tag and
// ingredient sets. Only the author may update.
func (s *RecipeService) UpdateRecipe(ctx context.Context, recipeID, userID uint, req *types.RecipeRequest) (*types.Recipe, error) {
	recipe, err := s.findRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	if err := validateRecipe(req, false); err != nil {
		return nil, err
	}
	if recipe.AuthorID != userID {
		return nil, ErrNotAuthor
	}

	oldImage := recipe.Image
	imageURL := oldImage
	if req.Image != "" {
		if imageURL, err = s.saveImage(ctx, req.Image); err != nil {
			return nil, err
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(tx, req); err != nil {
			return err
		}
		err := tx.Model(recipe).Omit(clause.Associations).Updates(map[string]interface{}{
			"name":         req.Name,
			"text":         req.Text,
			"cooking_time": req.CookingTime,
			"image":        imageURL,
		}).Error
		if err != nil {
			return err
		}
		if err := clearAssociations(tx, recipe.ID); err != nil {
			return err
		}
		return createAssociations(tx, recipe.ID, req)
	})
	if err != nil {
		if imageURL != oldImage {
			s.discardImage(ctx, imageURL)
		}
		return nil, err
	}

	if imageURL != oldImage {
		s.discardImage(ctx, oldImage)
	}

	s.logger.Info("recipe updated", zap.Uint("recipe_id", recipe.ID), zap.Uint("user_id", userID))
	return s.GetRecipe(ctx, recipe.ID, userID)
}

// DeleteRecipe removes the recipe together with its associations, favorites
// and shopping cart entries. Only the author may delete.
func (s *RecipeService) DeleteRecipe(ctx context.Context, recipeID, userID uint) error {
	recipe, err := s.findRecipe(ctx, recipeID)
	if err != nil {
		return err
	}
	if recipe.AuthorID != userID {
		return ErrNotAuthor
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearAssociations(tx, recipe.ID); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.ShoppingCart{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Recipe{}, recipe.ID).Error
	})
	if err != nil {
		return err
	}

	s.discardImage(ctx, recipe.Image)
	s.logger.Info("recipe deleted", zap.Uint("recipe_id", recipe.ID), zap.Uint("user_id", userID))
	return nil
}

// GetRecipe returns the full view of a recipe as seen by viewerID (0 for anonymous)
func (s *RecipeService) GetRecipe(ctx context.Context, recipeID, viewerID uint) (*types.Recipe, error) {
	var recipe models.Recipe
	err := withRecipeDetails(s.db.WithContext(ctx)).First(&recipe, recipeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, kindError(ErrNotFound, msgRecipeNotFound)
		}
		return nil, err
	}

	views, err := s.buildViews(ctx, []models.Recipe{recipe}, viewerID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Exists reports whether a recipe with the id is stored
func (s *RecipeService) Exists(ctx context.Context, recipeID uint) (bool, error) {
	return recipeExists(s.db.WithContext(ctx), recipeID)
}

// ListRecipes returns one page of recipes, newest first, and the total
// number of recipes matching the filter
func (s *RecipeService) ListRecipes(ctx context.Context, viewerID uint, filter RecipeFilter, page types.PageRequest) ([]types.Recipe, int64, error) {
	db := s.db.WithContext(ctx)
	query := db.Model(&models.Recipe{})

	if len(filter.Tags) > 0 {
		tagged := db.Model(&models.TagInRecipe{}).
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.Tags)
		query = query.Where("recipes.id IN (?)", tagged)
	}
	if filter.AuthorID != 0 {
		query = query.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if viewerID != 0 && filter.IsFavorited {
		query = query.Where("recipes.id IN (?)",
			db.Model(&models.Favorite{}).Select("recipe_id").Where("customer_id = ?", viewerID))
	}
	if viewerID != 0 && filter.IsInShoppingCart {
		query = query.Where("recipes.id IN (?)",
			db.Model(&models.ShoppingCart{}).Select("recipe_id").Where("customer_id = ?", viewerID))
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	recipes := []models.Recipe{}
	err := withRecipeDetails(query).
		Order("recipes.id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}

	views, err := s.buildViews(ctx, recipes, viewerID)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (s *RecipeService) findRecipe(ctx context.Context, recipeID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, kindError(ErrNotFound, msgRecipeNotFound)
		}
		return nil, err
	}
	return &recipe, nil
}

func (s *RecipeService) saveImage(ctx context.Context, dataURI string) (string, error) {
	img, err := storage.DecodeDataURI(dataURI)
	if err != nil {
		return "", invalid("image", err.Error())
	}
	return s.images.Save(ctx, storage.RecipeImages, img)
}

// discardImage removes an image that is no longer referenced. Failures only
// leave an orphaned file behind, so they are logged and swallowed.
func (s *RecipeService) discardImage(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.images.Delete(ctx, url); err != nil {
		s.logger.Warn("failed to delete recipe image", zap.String("url", url), zap.Error(err))
	}
}

// buildViews computes author projections and the per-viewer flags in three
// batched lookups regardless of page size
func (s *RecipeService) buildViews(ctx context.Context, recipes []models.Recipe, viewerID uint) ([]types.Recipe, error) {
	views := make([]types.Recipe, 0, len(recipes))
	if len(recipes) == 0 {
		return views, nil
	}

	recipeIDs := make([]uint, 0, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for _, r := range recipes {
		recipeIDs = append(recipeIDs, r.ID)
		authorIDs = append(authorIDs, r.AuthorID)
	}

	favorited := map[uint]bool{}
	inCart := map[uint]bool{}
	subscribed := map[uint]bool{}
	if viewerID != 0 {
		var err error
		db := s.db.WithContext(ctx)
		if favorited, err = pluckSet(db.Model(&models.Favorite{}).Where("customer_id = ? AND recipe_id IN ?", viewerID, recipeIDs), "recipe_id"); err != nil {
			return nil, err
		}
		if inCart, err = pluckSet(db.Model(&models.ShoppingCart{}).Where("customer_id = ? AND recipe_id IN ?", viewerID, recipeIDs), "recipe_id"); err != nil {
			return nil, err
		}
		if subscribed, err = pluckSet(db.Model(&models.Subscription{}).Where("subscriber_id = ? AND author_id IN ?", viewerID, authorIDs), "author_id"); err != nil {
			return nil, err
		}
	}

	for _, r := range recipes {
		view := types.Recipe{
			ID:               r.ID,
			Tags:             make([]models.Tag, 0, len(r.TagLinks)),
			Author:           types.NewUser(r.Author, subscribed[r.AuthorID]),
			Ingredients:      make([]types.RecipeIngredient, 0, len(r.IngredientAmounts)),
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
		for _, link := range r.TagLinks {
			view.Tags = append(view.Tags, link.Tag)
		}
		for _, amount := range r.IngredientAmounts {
			view.Ingredients = append(view.Ingredients, types.RecipeIngredient{
				ID:              amount.Ingredient.ID,
				Name:            amount.Ingredient.Name,
				MeasurementUnit: amount.Ingredient.MeasurementUnit,
				Amount:          amount.Amount,
			})
		}
		views = append(views, view)
	}
	return views, nil
}

// withRecipeDetails preloads everything a recipe view needs. Association
// rows come back in insertion order.
func withRecipeDetails(db *gorm.DB) *gorm.DB {
	byID := func(table string) func(*gorm.DB) *gorm.DB {
		return func(db *gorm.DB) *gorm.DB {
			return db.Order(table + ".id")
		}
	}
	return db.
		Preload("Author").
		Preload("TagLinks", byID("recipe_tags")).
		Preload("TagLinks.Tag").
		Preload("IngredientAmounts", byID("recipe_ingredients")).
		Preload("IngredientAmounts.Ingredient")
}

// checkReferences resolves every tag and ingredient id of the payload
func checkReferences(tx *gorm.DB, req *types.RecipeRequest) error {
	if id, ok, err := firstMissing(tx.Model(&models.Tag{}), req.Tags); err != nil {
		return err
	} else if ok {
		return &ReferenceError{Field: "tags", ID: id}
	}

	ingredientIDs := make([]uint, 0, len(req.Ingredients))
	for _, item := range req.Ingredients {
		ingredientIDs = append(ingredientIDs, item.ID)
	}
	if id, ok, err := firstMissing(tx.Model(&models.Ingredient{}), ingredientIDs); err != nil {
		return err
	} else if ok {
		return &ReferenceError{Field: "ingredients", ID: id}
	}
	return nil
}

func firstMissing(query *gorm.DB, ids []uint) (uint, bool, error) {
	var found []uint
	if err := query.Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return 0, false, err
	}
	present := make(map[uint]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			return id, true, nil
		}
	}
	return 0, false, nil
}

func clearAssociations(tx *gorm.DB, recipeID uint) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.TagInRecipe{}).Error; err != nil {
		return err
	}
	return tx.Where("recipe_id = ?", recipeID).Delete(&models.AmountOfIngredientInRecipe{}).Error
}

// createAssociations bulk inserts the join rows in payload order
func createAssociations(tx *gorm.DB, recipeID uint, req *types.RecipeRequest) error {
	tags := make([]models.TagInRecipe, 0, len(req.Tags))
	for _, tagID := range req.Tags {
		tags = append(tags, models.TagInRecipe{RecipeID: recipeID, TagID: tagID})
	}
	if err := tx.Omit(clause.Associations).Create(&tags).Error; err != nil {
		return err
	}

	amounts := make([]models.AmountOfIngredientInRecipe, 0, len(req.Ingredients))
	for _, item := range req.Ingredients {
		amounts = append(amounts, models.AmountOfIngredientInRecipe{
			RecipeID:     recipeID,
			IngredientID: item.ID,
			Amount:       item.Amount,
		})
	}
	return tx.Omit(clause.Associations).Create(&amounts).Error
}

func pluckSet(query *gorm.DB, column string) (map[uint]bool, error) {
	var ids []uint
	if err := query.Pluck(column, &ids).Error; err != nil {
		return nil, err
	}
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
