package place

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-vietspot-suggestions/internal/types"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) SearchText(ctx context.Context, filter TextFilter) ([]Record, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Record), args.Error(1)
}

func (m *MockRepository) SearchRadius(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]Record, error) {
	args := m.Called(ctx, lat, lon, radiusKm, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Record), args.Error(1)
}

func (m *MockRepository) FetchAll(ctx context.Context, limit int) ([]Record, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Record), args.Error(1)
}

func (m *MockRepository) FetchByIDs(ctx context.Context, ids []string) ([]Record, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Record), args.Error(1)
}

func (m *MockRepository) FetchByAddress(ctx context.Context, pattern string, limit int) ([]Record, error) {
	args := m.Called(ctx, pattern, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Record), args.Error(1)
}

func (m *MockRepository) ImagesForPlace(ctx context.Context, placeID string, limit int) ([]string, error) {
	args := m.Called(ctx, placeID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockGeoIndex struct {
	mock.Mock
}

func (m *MockGeoIndex) Nearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]string, error) {
	args := m.Called(ctx, lat, lon, radiusKm, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

var testCategories = map[string]string{
	"bãi biển": "Biển & Bãi Biển",
	"biển":     "Biển & Bãi Biển",
	"beach":    "Biển & Bãi Biển",
	"bảo tàng": "Bảo Tàng & Triển Lãm",
	"museum":   "Bảo Tàng & Triển Lãm",
	"cà phê":   "Café",
}

func setupPlaceServiceTest() (*ServiceImpl, *MockRepository) {
	repo := new(MockRepository)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	svc := NewService(repo, NewCategoryDetector(testCategories), logger,
		WithCities([]string{"Hà Nội", "Vũng Tàu", "Đà Nẵng"}))
	return svc, repo
}

func TestPlaceService_SearchByKeywords(t *testing.T) {
	ctx := context.Background()

	t.Run("category terms restrict results to that category", func(t *testing.T) {
		svc, repo := setupPlaceServiceTest()

		records := []Record{
			{ID: "m1", Name: "Bảo tàng Vũng Tàu", Address: "Vũng Tàu", Category: "Bảo Tàng & Triển Lãm", Rating: ptr(4.6)},
			{ID: "b1", Name: "Bãi Sau", Address: "Thùy Vân, Vũng Tàu", Category: "Biển & Bãi Biển", Rating: ptr(4.4)},
			{ID: "b2", Name: "Bãi Trước", Address: "Quang Trung, Vũng Tàu", Category: "Biển & Bãi Biển", Rating: ptr(4.2)},
		}
		repo.On("SearchText", mock.Anything, mock.MatchedBy(func(f TextFilter) bool {
			return assert.ObjectsAreEqual([]string{"bãi biển"}, f.Terms) &&
				assert.ObjectsAreEqual([]string{"vũng tàu"}, f.AddressTerms) &&
				assert.ObjectsAreEqual([]string{"Biển & Bãi Biển"}, f.Categories)
		})).Return(records, nil).Once()

		got, err := svc.SearchByKeywords(ctx, types.KeywordQuery{
			Terms: []string{"bãi biển", "Vũng Tàu"},
			Limit: 50,
		})
		require.NoError(t, err)
		require.Len(t, got, 2)
		for _, c := range got {
			assert.Equal(t, "Biển & Bãi Biển", c.Category)
			assert.GreaterOrEqual(t, c.MatchScore, float64(categoryMatchWeight))
		}
		repo.AssertExpectations(t)
	})

	t.Run("falls back to the full union when no row has the category", func(t *testing.T) {
		svc, repo := setupPlaceServiceTest()

		records := []Record{
			{ID: "c1", Name: "Quán biển xanh", Address: "Đà Nẵng", Category: "Nhà Hàng"},
			{ID: "c2", Name: "Nhà hàng Biển Đông", Address: "Đà Nẵng", Category: "Nhà Hàng"},
		}
		repo.On("SearchText", mock.Anything, mock.Anything).Return(records, nil).Once()

		got, err := svc.SearchByKeywords(ctx, types.KeywordQuery{Terms: []string{"biển"}})
		require.NoError(t, err)
		assert.Len(t, got, 2)
		repo.AssertExpectations(t)
	})

	t.Run("ranks name hits above address hits", func(t *testing.T) {
		svc, repo := setupPlaceServiceTest()

		records := []Record{
			{ID: "a", Name: "Quán Ốc", Address: "Phở Hàng Giấy, Hà Nội"},
			{ID: "b", Name: "Phở Thìn", Address: "13 Lò Đúc, Hà Nội"},
		}
		repo.On("SearchText", mock.Anything, mock.Anything).Return(records, nil).Once()

		got, err := svc.SearchByKeywords(ctx, types.KeywordQuery{Terms: []string{"phở"}})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "b", got[0].ID)
		assert.Equal(t, float64(nameMatchWeight), got[0].MatchScore)
		assert.Equal(t, float64(addressMatchWeight), got[1].MatchScore)
		repo.AssertExpectations(t)
	})

	t.Run("unknown explicit category is searched verbatim", func(t *testing.T) {
		svc, repo := setupPlaceServiceTest()

		repo.On("SearchText", mock.Anything, mock.MatchedBy(func(f TextFilter) bool {
			return assert.ObjectsAreEqual([]string{"Chợ"}, f.Categories)
		})).Return([]Record{}, nil).Once()

		got, err := svc.SearchByKeywords(ctx, types.KeywordQuery{Category: "Chợ"})
		require.NoError(t, err)
		assert.Empty(t, got)
		repo.AssertExpectations(t)
	})

	t.Run("repository error is returned", func(t *testing.T) {
		svc, repo := setupPlaceServiceTest()
		repo.On("SearchText", mock.Anything, mock.Anything).Return(nil, errors.New("db down")).Once()

		got, err := svc.SearchByKeywords(ctx, types.KeywordQuery{Terms: []string{"x"}})
		require.Error(t, err)
		assert.Nil(t, got)
		repo.AssertExpectations(t)
	})
}

func TestPlaceService_SearchNearby(t *testing.T) {
	ctx := context.Background()

	t.Run("drops unreadable coordinates and sorts by distance", func(t *testing.T) {
		svc, repo := setupPlaceServiceTest()

		records := []Record{
			{ID: "far", Name: "Far", Coordinates: []byte(`{"lat": 10.80, "lon": 106.70}`)},
			{ID: "bad", Name: "Bad", Coordinates: []byte(`"not a coordinate"`)},
			{ID: "near", Name: "Near", Coordinates: []byte(`{"type": "Point", "coordinates": [106.701, 10.771]}`)},
			{ID: "none", Name: "None"},
			{ID: "outside", Name: "Outside", Coordinates: []byte(`{"lat": 11.50, "lon": 106.70}`)},
		}
		repo.On("SearchRadius", mock.Anything, 10.77, 106.70, 5.0, 100).Return(records, nil).Once()

		got, err := svc.SearchNearby(ctx, 10.77, 106.70, 5, 100)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "near", got[0].ID)
		assert.Equal(t, "far", got[1].ID)
		for _, c := range got {
			require.NotNil(t, c.DistanceKm)
			assert.LessOrEqual(t, *c.DistanceKm, 5.0)
		}
		repo.AssertExpectations(t)
	})

	t.Run("non-finite origin returns nothing", func(t *testing.T) {
		svc, repo := setupPlaceServiceTest()
		got, err := svc.SearchNearby(ctx, 10.0, math.Inf(1), 5, 10)
		require.NoError(t, err)
		assert.Empty(t, got)
		repo.AssertExpectations(t)
	})

	t.Run("geo index failure falls back to the database", func(t *testing.T) {
		svc, repo := setupPlaceServiceTest()
		idx := new(MockGeoIndex)
		svc.geoIndex = idx

		idx.On("Nearby", mock.Anything, 10.77, 106.70, 2.0, 10).Return(nil, errors.New("redis down")).Once()
		repo.On("SearchRadius", mock.Anything, 10.77, 106.70, 2.0, 10).Return([]Record{}, nil).Once()

		got, err := svc.SearchNearby(ctx, 10.77, 106.70, 2, 10)
		require.NoError(t, err)
		assert.Empty(t, got)
		idx.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("empty geo index result is checked against the database", func(t *testing.T) {
		svc, repo := setupPlaceServiceTest()
		idx := new(MockGeoIndex)
		svc.geoIndex = idx

		idx.On("Nearby", mock.Anything, 10.77, 106.70, 2.0, 10).Return([]string{}, nil).Once()
		repo.On("SearchRadius", mock.Anything, 10.77, 106.70, 2.0, 10).Return([]Record{
			{ID: "added-later", Name: "Added Later", Coordinates: []byte(`{"lat": 10.771, "lon": 106.701}`)},
		}, nil).Once()

		got, err := svc.SearchNearby(ctx, 10.77, 106.70, 2, 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "added-later", got[0].ID)
		repo.AssertNotCalled(t, "FetchByIDs", mock.Anything, mock.Anything)
		idx.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("geo index hits are loaded by id", func(t *testing.T) {
		svc, repo := setupPlaceServiceTest()
		idx := new(MockGeoIndex)
		svc.geoIndex = idx

		idx.On("Nearby", mock.Anything, 10.77, 106.70, 2.0, 10).Return([]string{"near"}, nil).Once()
		repo.On("FetchByIDs", mock.Anything, []string{"near"}).Return([]Record{
			{ID: "near", Name: "Near", Coordinates: []byte(`[106.701, 10.771]`)},
		}, nil).Once()

		got, err := svc.SearchNearby(ctx, 10.77, 106.70, 2, 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "near", got[0].ID)
		idx.AssertExpectations(t)
		repo.AssertExpectations(t)
	})
}

func TestPlaceService_GetByIDs(t *testing.T) {
	ctx := context.Background()
	svc, repo := setupPlaceServiceTest()

	repo.On("FetchByIDs", mock.Anything, []string{"c", "a", "missing"}).Return([]Record{
		{ID: "a", Name: "A"},
		{ID: "c", Name: "C", RatingCount: 40, NumCheckins: 250},
	}, nil).Once()

	got, err := svc.GetByIDs(ctx, []string{"c", "a", "missing"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, 250, got[0].NumCheckins)
	assert.Equal(t, "a", got[1].ID)
	repo.AssertExpectations(t)
}

func TestPlaceService_FindByCity(t *testing.T) {
	ctx := context.Background()
	svc, repo := setupPlaceServiceTest()

	repo.On("FetchByAddress", mock.Anything, "Đà Nẵng", 100).Return([]Record{
		{ID: "1", Name: "Cầu Rồng"},
		{ID: "2", Name: "Bãi biển Mỹ Khê"},
	}, nil).Once()
	repo.On("FetchByAddress", mock.Anything, "Da Nang", 50).Return([]Record{
		{ID: "2", Name: "Bãi biển Mỹ Khê"},
		{ID: "3", Name: "Bà Nà Hills"},
	}, nil).Once()
	repo.On("FetchByAddress", mock.Anything, "Danang", 50).Return(nil, errors.New("timeout")).Once()

	got, err := svc.FindByCity(ctx, "Đà Nẵng", []string{"Đà Nẵng", "Da Nang", "Danang"}, 100, 50)
	require.NoError(t, err)
	ids := make([]string, 0, len(got))
	for _, c := range got {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids)
	repo.AssertExpectations(t)
}

func TestIsLocationTerm(t *testing.T) {
	cities := []string{"Hà Nội"}
	tests := []struct {
		term     string
		location string
		want     bool
	}{
		{"quận 1", "", true},
		{"q1", "", true},
		{"phường bến nghé", "", true},
		{"tp hồ chí minh", "", true},
		{"hà nội", "", true},
		{"thủ đức", "Thủ Đức", true},
		{"phở", "", false},
		{"quán", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.Equal(t, tt.want, isLocationTerm(tt.term, tt.location, cities))
		})
	}
}

func TestCategoryDetector_Detect(t *testing.T) {
	d := NewCategoryDetector(testCategories)

	assert.Equal(t, []string{"Biển & Bãi Biển"}, d.Detect("Bãi Biển đẹp", "beach"))
	assert.Equal(t, []string{"Café", "Bảo Tàng & Triển Lãm"}, d.Detect("cà phê gần bảo tàng"))
	assert.Empty(t, d.Detect("phở bò"))
	assert.Nil(t, NewCategoryDetector(nil).Detect("biển"))
}
