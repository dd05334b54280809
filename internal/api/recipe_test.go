package api_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/shortlink"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestRecipeLifecycle(t *testing.T) {
	app := SetupTestAPI(t)
	author, token := app.CreateTestUserAndToken(t, "author")
	breakfast := testhelpers.CreateTag(t, app.DB, "Завтрак", "breakfast")
	eggs := testhelpers.CreateIngredient(t, app.DB, "eggs", "шт.")

	w := app.PerformRequestWithToken(http.MethodPost, "/api/recipes", recipePayload([]uint{breakfast.ID}, map[uint]int{eggs.ID: 3}), token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode(t, w)
	recipeID := uint(created["id"].(float64))
	assert.Equal(t, "Omelette", created["name"])
	assert.Equal(t, false, created["is_favorited"])
	assert.Equal(t, float64(author.ID), created["author"].(map[string]interface{})["id"])
	ingredients := created["ingredients"].([]interface{})
	require.Len(t, ingredients, 1)
	assert.Equal(t, map[string]interface{}{
		"id": float64(eggs.ID), "name": "eggs", "measurement_unit": "шт.", "amount": float64(3),
	}, ingredients[0])
	assert.Equal(t, float64(1), testutil.ToFloat64(app.Metrics.RecipeWrites.WithLabelValues("create")))

	path := fmt.Sprintf("/api/recipes/%d", recipeID)

	w = app.PerformRequestWithToken(http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Whisk and fry.", decode(t, w)["text"])

	update := recipePayload([]uint{breakfast.ID}, map[uint]int{eggs.ID: 4})
	update["name"] = "Big omelette"
	delete(update, "image")
	w = app.PerformRequestWithToken(http.MethodPatch, path, update, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode(t, w)
	assert.Equal(t, "Big omelette", updated["name"])
	assert.Equal(t, created["image"], updated["image"], "image is kept when omitted")

	w = app.PerformRequestWithToken(http.MethodGet, path+"/get-link", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	link := decode(t, w)["short-link"].(string)
	assert.Equal(t, publicURL+"/s/"+shortlink.Encode(uint64(recipeID)), link)

	w = app.PerformRequestWithToken(http.MethodGet, strings.TrimPrefix(link, publicURL), nil, "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("%s/recipes/%d", publicURL, recipeID), w.Header().Get("Location"))

	w = app.PerformRequestWithToken(http.MethodDelete, path, nil, token)
	assert.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, http.StatusNotFound, app.PerformRequestWithToken(http.MethodGet, path, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, app.PerformRequestWithToken(http.MethodGet, path+"/get-link", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, app.PerformRequestWithToken(http.MethodGet, strings.TrimPrefix(link, publicURL), nil, "").Code)
}

func TestCreateRecipe_Rejections(t *testing.T) {
	app := SetupTestAPI(t)
	_, token := app.CreateTestUserAndToken(t, "author")
	tag := testhelpers.CreateTag(t, app.DB, "Завтрак", "breakfast")
	eggs := testhelpers.CreateIngredient(t, app.DB, "eggs", "шт.")

	w := app.PerformRequestWithToken(http.MethodPost, "/api/recipes", recipePayload([]uint{tag.ID}, map[uint]int{eggs.ID: 1}), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.PerformRequestWithToken(http.MethodPost, "/api/recipes", recipePayload([]uint{}, map[uint]int{eggs.ID: 1}), token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []interface{}{"Ошибка ввода данных: поле тегов не может быть пустым."}, decode(t, w)["tags"])

	w = app.PerformRequestWithToken(http.MethodPost, "/api/recipes", recipePayload([]uint{tag.ID}, map[uint]int{999: 1}), token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []interface{}{`Недопустимый первичный ключ "999" - объект не существует.`}, decode(t, w)["ingredients"])

	w = app.PerformRequestWithToken(http.MethodPost, "/api/recipes", `{"name":`, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w), "detail")

	var count int64
	require.NoError(t, app.DB.Model(&models.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdateRecipe_OnlyAuthor(t *testing.T) {
	app := SetupTestAPI(t)
	author, _ := app.CreateTestUserAndToken(t, "author")
	_, otherToken := app.CreateTestUserAndToken(t, "other")
	tag := testhelpers.CreateTag(t, app.DB, "Завтрак", "breakfast")
	eggs := testhelpers.CreateIngredient(t, app.DB, "eggs", "шт.")
	recipe := testhelpers.CreateRecipe(t, app.DB, author, "Omelette", []*models.Tag{tag}, map[uint]int{eggs.ID: 2})
	path := fmt.Sprintf("/api/recipes/%d", recipe.ID)

	w := app.PerformRequestWithToken(http.MethodPatch, path, recipePayload([]uint{tag.ID}, map[uint]int{eggs.ID: 5}), otherToken)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "У вас недостаточно прав для выполнения данного действия.", decode(t, w)["detail"])

	assert.Equal(t, http.StatusForbidden, app.PerformRequestWithToken(http.MethodDelete, path, nil, otherToken).Code)
	assert.Equal(t, http.StatusNotFound, app.PerformRequestWithToken(http.MethodPatch, "/api/recipes/999", recipePayload([]uint{tag.ID}, map[uint]int{eggs.ID: 5}), otherToken).Code)
	assert.Equal(t, http.StatusNotFound, app.PerformRequestWithToken(http.MethodGet, "/api/recipes/abc", nil, "").Code)
}

func TestShortLink_InvalidCharacterIsBadRequest(t *testing.T) {
	app := SetupTestAPI(t)

	w := app.PerformRequestWithToken(http.MethodGet, "/s/a.b", nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Ссылка недействительна.", decode(t, w)["detail"])

	assert.Equal(t, http.StatusNotFound, app.PerformRequestWithToken(http.MethodGet, "/s/Zz", nil, "").Code)
}

func TestListRecipes_PaginationAndFilters(t *testing.T) {
	app := SetupTestAPI(t)
	author, token := app.CreateTestUserAndToken(t, "author")
	other := testhelpers.CreateUser(t, app.DB, "other")
	breakfast := testhelpers.CreateTag(t, app.DB, "Завтрак", "breakfast")
	lunch := testhelpers.CreateTag(t, app.DB, "Обед", "lunch")
	eggs := testhelpers.CreateIngredient(t, app.DB, "eggs", "шт.")

	var recipes []*models.Recipe
	for i := 0; i < 7; i++ {
		tags := []*models.Tag{breakfast}
		owner := author
		if i%2 == 1 {
			tags = []*models.Tag{lunch}
			owner = other
		}
		recipes = append(recipes, testhelpers.CreateRecipe(t, app.DB, owner, fmt.Sprintf("Recipe %d", i), tags, map[uint]int{eggs.ID: 1}))
	}
	testhelpers.AddToCart(t, app.DB, author, recipes[1])

	w := app.PerformRequestWithToken(http.MethodGet, "/api/recipes?limit=3&page=2", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	page := decode(t, w)
	assert.Equal(t, float64(7), page["count"])
	assert.Equal(t, publicURL+"/api/recipes?limit=3&page=3", page["next"])
	assert.Equal(t, publicURL+"/api/recipes?limit=3", page["previous"])
	results := page["results"].([]interface{})
	require.Len(t, results, 3)
	assert.Equal(t, "Recipe 3", results[0].(map[string]interface{})["name"], "newest first")

	w = app.PerformRequestWithToken(http.MethodGet, "/api/recipes", nil, "")
	page = decode(t, w)
	assert.Len(t, page["results"], 6, "default page size")
	assert.Nil(t, page["previous"])

	w = app.PerformRequestWithToken(http.MethodGet, "/api/recipes?tags=lunch", nil, "")
	assert.Equal(t, float64(3), decode(t, w)["count"])

	w = app.PerformRequestWithToken(http.MethodGet, "/api/recipes?tags=lunch&tags=breakfast", nil, "")
	assert.Equal(t, float64(7), decode(t, w)["count"])

	w = app.PerformRequestWithToken(http.MethodGet, fmt.Sprintf("/api/recipes?author=%d", author.ID), nil, "")
	assert.Equal(t, float64(4), decode(t, w)["count"])

	w = app.PerformRequestWithToken(http.MethodGet, "/api/recipes?is_in_shopping_cart=1", nil, token)
	page = decode(t, w)
	assert.Equal(t, float64(1), page["count"])
	assert.Equal(t, true, page["results"].([]interface{})[0].(map[string]interface{})["is_in_shopping_cart"])

	w = app.PerformRequestWithToken(http.MethodGet, "/api/recipes?is_in_shopping_cart=1", nil, "")
	assert.Equal(t, float64(7), decode(t, w)["count"], "anonymous viewers are not filtered")

	assert.Equal(t, http.StatusNotFound, app.PerformRequestWithToken(http.MethodGet, "/api/recipes?page=9", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, app.PerformRequestWithToken(http.MethodGet, "/api/recipes?page=abc", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, app.PerformRequestWithToken(http.MethodGet, "/api/recipes?author=me", nil, "").Code)
}

func TestBookmarksAndShoppingListDownload(t *testing.T) {
	app := SetupTestAPI(t)
	author := testhelpers.CreateUser(t, app.DB, "author")
	_, token := app.CreateTestUserAndToken(t, "reader")
	tag := testhelpers.CreateTag(t, app.DB, "Обед", "lunch")
	beets := testhelpers.CreateIngredient(t, app.DB, "beets", "г")
	salt := testhelpers.CreateIngredient(t, app.DB, "salt", "г")
	borscht := testhelpers.CreateRecipe(t, app.DB, author, "Borscht", []*models.Tag{tag}, map[uint]int{beets.ID: 300, salt.ID: 5})
	salad := testhelpers.CreateRecipe(t, app.DB, author, "Salad", []*models.Tag{tag}, map[uint]int{beets.ID: 200})

	favorite := fmt.Sprintf("/api/recipes/%d/favorite", borscht.ID)
	w := app.PerformRequestWithToken(http.MethodPost, favorite, nil, token)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, map[string]interface{}{
		"id": float64(borscht.ID), "name": "Borscht", "image": borscht.Image, "cooking_time": float64(borscht.CookingTime),
	}, decode(t, w))

	w = app.PerformRequestWithToken(http.MethodPost, favorite, nil, token)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Рецепт уже добавлен в избранное", decode(t, w)["errors"])

	assert.Equal(t, http.StatusNoContent, app.PerformRequestWithToken(http.MethodDelete, favorite, nil, token).Code)
	w = app.PerformRequestWithToken(http.MethodDelete, favorite, nil, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Рецепта нет в избранном", decode(t, w)["errors"])

	assert.Equal(t, http.StatusNotFound, app.PerformRequestWithToken(http.MethodPost, "/api/recipes/999/favorite", nil, token).Code)
	assert.Equal(t, http.StatusUnauthorized, app.PerformRequestWithToken(http.MethodPost, favorite, nil, "").Code)

	for _, r := range []*models.Recipe{borscht, salad} {
		w = app.PerformRequestWithToken(http.MethodPost, fmt.Sprintf("/api/recipes/%d/shopping_cart", r.ID), nil, token)
		require.Equal(t, http.StatusCreated, w.Code)
	}
	assert.Equal(t, float64(2), testutil.ToFloat64(app.Metrics.BookmarkChanges.WithLabelValues("shopping_cart", "add")))

	w = app.PerformRequestWithToken(http.MethodGet, "/api/recipes/download_shopping_cart", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="shopping_list.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "Название,Количество,Единицы измерения\nbeets,500,г\nsalt,5,г\n", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, app.PerformRequestWithToken(http.MethodGet, "/api/recipes/download_shopping_cart", nil, "").Code)
}
