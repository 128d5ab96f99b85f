package place

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRedis implements the three GEO calls the index makes. Any other
// Cmdable method panics through the nil embedded interface.
type MockRedis struct {
	redis.Cmdable
	mock.Mock
}

func (m *MockRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)
	return redis.NewIntResult(int64(args.Int(0)), args.Error(1))
}

func (m *MockRedis) GeoAdd(ctx context.Context, key string, locations ...*redis.GeoLocation) *redis.IntCmd {
	args := m.Called(ctx, key, locations)
	return redis.NewIntResult(int64(len(locations)), args.Error(0))
}

func (m *MockRedis) GeoRadius(ctx context.Context, key string, lon, lat float64, q *redis.GeoRadiusQuery) *redis.GeoLocationCmd {
	args := m.Called(ctx, key, lon, lat, q)
	var locs []redis.GeoLocation
	if v := args.Get(0); v != nil {
		locs = v.([]redis.GeoLocation)
	}
	return redis.NewGeoLocationCmdResult(locs, args.Error(1))
}

func setupGeoIndexTest() (*RedisGeoIndex, *MockRedis, *MockRepository) {
	rdb := new(MockRedis)
	repo := new(MockRepository)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewRedisGeoIndex(rdb, "", logger), rdb, repo
}

func TestRedisGeoIndex_Rebuild(t *testing.T) {
	ctx := context.Background()

	t.Run("indexes only readable coordinates", func(t *testing.T) {
		idx, rdb, repo := setupGeoIndexTest()
		repo.On("FetchAll", mock.Anything, 5000).Return([]Record{
			{ID: "a", Coordinates: []byte(`{"lat":10.77,"lon":106.70}`)},
			{ID: "b", Coordinates: []byte(`"not coordinates"`)},
			{ID: "c", Coordinates: []byte(`[108.22,16.06]`)},
			{ID: "d"},
		}, nil).Once()
		rdb.On("Del", mock.Anything, []string{"places:geo"}).Return(1, nil).Once()
		rdb.On("GeoAdd", mock.Anything, "places:geo", mock.MatchedBy(func(locs []*redis.GeoLocation) bool {
			return len(locs) == 2 && locs[0].Name == "a" && locs[0].Longitude == 106.70 &&
				locs[1].Name == "c" && locs[1].Latitude == 16.06
		})).Return(nil).Once()

		n, err := idx.Rebuild(ctx, repo, 5000)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		rdb.AssertExpectations(t)
	})

	t.Run("store failure leaves redis untouched", func(t *testing.T) {
		idx, rdb, repo := setupGeoIndexTest()
		repo.On("FetchAll", mock.Anything, 10).Return(nil, errors.New("pool closed")).Once()

		_, err := idx.Rebuild(ctx, repo, 10)
		assert.Error(t, err)
		rdb.AssertNotCalled(t, "Del", mock.Anything, mock.Anything)
	})
}

func TestRedisGeoIndex_Nearby(t *testing.T) {
	idx, rdb, _ := setupGeoIndexTest()
	rdb.On("GeoRadius", mock.Anything, "places:geo", 106.70, 10.77, mock.MatchedBy(func(q *redis.GeoRadiusQuery) bool {
		return q.Radius == 2 && q.Unit == "km" && q.Sort == "ASC" && q.Count == 20
	})).Return([]redis.GeoLocation{{Name: "near"}, {Name: "far"}}, nil).Once()

	ids, err := idx.Nearby(context.Background(), 10.77, 106.70, 2, 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"near", "far"}, ids)

	t.Run("redis error", func(t *testing.T) {
		idx, rdb, _ := setupGeoIndexTest()
		rdb.On("GeoRadius", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, redis.ErrClosed).Once()
		_, err := idx.Nearby(context.Background(), 1, 2, 3, 4)
		assert.ErrorIs(t, err, redis.ErrClosed)
	})
}
