package repository_test

import (
	"context"
	"testing"

	"github.com/Tonic56/crypto-market-watch/internal/models"
	"github.com/Tonic56/crypto-market-watch/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoriteCoins(t *testing.T) {
	db := setupTestDB(t)
	coins := repository.NewCoinsRepository(db)
	users := repository.NewUsersRepository(db)
	favorites := repository.NewFavoritesRepository(db)
	ctx := context.Background()

	user, err := users.AddUser(ctx, "alice", "alice@example.com", "hash")
	require.NoError(t, err)

	require.NoError(t, coins.ReplaceAll(ctx, []models.Coin{
		coin("bitcoin", "btc", "Bitcoin", rank(1), "50000"),
		coin("ethereum", "eth", "Ethereum", rank(2), "3000"),
	}))

	t.Run("add_is_idempotent", func(t *testing.T) {
		require.NoError(t, favorites.AddFavoriteCoin(ctx, user.ID, "ethereum"))
		require.NoError(t, favorites.AddFavoriteCoin(ctx, user.ID, "ethereum"))
		require.NoError(t, favorites.AddFavoriteCoin(ctx, user.ID, "bitcoin"))

		list, err := favorites.ListFavoriteCoins(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"bitcoin", "ethereum"}, ids(list))

		ok, err := favorites.IsFavoriteCoin(ctx, user.ID, "ethereum")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("missing_from_snapshot_is_hidden", func(t *testing.T) {
		require.NoError(t, coins.ReplaceAll(ctx, []models.Coin{
			coin("bitcoin", "btc", "Bitcoin", rank(1), "50000"),
		}))

		list, err := favorites.ListFavoriteCoins(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"bitcoin"}, ids(list))

		ok, err := favorites.IsFavoriteCoin(ctx, user.ID, "ethereum")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("remove_is_idempotent", func(t *testing.T) {
		require.NoError(t, favorites.RemoveFavoriteCoin(ctx, user.ID, "bitcoin"))
		require.NoError(t, favorites.RemoveFavoriteCoin(ctx, user.ID, "bitcoin"))

		ok, err := favorites.IsFavoriteCoin(ctx, user.ID, "bitcoin")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("other_user_sees_nothing", func(t *testing.T) {
		other, err := users.AddUser(ctx, "bob", "bob@example.com", "hash")
		require.NoError(t, err)

		list, err := favorites.ListFavoriteCoins(ctx, other.ID)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestFavoriteNews(t *testing.T) {
	db := setupTestDB(t)
	users := repository.NewUsersRepository(db)
	favorites := repository.NewFavoritesRepository(db)
	ctx := context.Background()

	user, err := users.AddUser(ctx, "alice", "alice@example.com", "hash")
	require.NoError(t, err)

	image := "https://img.example.com/1.png"
	article := models.NewsArticle{
		ID:         "42",
		Title:      "Bitcoin climbs",
		Body:       "long body",
		URL:        "https://news.example.com/42",
		ImageURL:   &image,
		SourceInfo: &models.SourceInfo{Name: "CoinDesk"},
	}

	require.NoError(t, favorites.AddFavoriteNews(ctx, user.ID, article))
	require.NoError(t, favorites.AddFavoriteNews(ctx, user.ID, article))

	list, err := favorites.ListFavoriteNews(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Bitcoin climbs", list[0].Title)
	require.NotNil(t, list[0].SourceName)
	assert.Equal(t, "CoinDesk", *list[0].SourceName)

	set, err := favorites.FavoriteNewsIDs(ctx, user.ID)
	require.NoError(t, err)
	assert.Contains(t, set, "42")

	require.NoError(t, favorites.RemoveFavoriteNews(ctx, user.ID, "42"))
	ok, err := favorites.IsFavoriteNews(ctx, user.ID, "42")
	require.NoError(t, err)
	assert.False(t, ok)
}
