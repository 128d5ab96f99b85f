package itinerary

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-vietspot-suggestions/internal/types"
)

func act(at, kind string, lat, lon float64) types.ActivityDetail {
	return types.ActivityDetail{
		Time:         at,
		ActivityType: kind,
		PlaceName:    kind + "@" + at,
		Latitude:     ptr(lat),
		Longitude:    ptr(lon),
	}
}

func TestOptimizeDayRoute(t *testing.T) {
	t.Run("chains free stops between meals by nearest neighbour", func(t *testing.T) {
		lunch := act("12:00", "lunch", 16.00, 108.20)
		far := act("14:00", "visit", 16.50, 108.50)
		near := act("15:00", "visit", 16.01, 108.21)
		dinner := act("18:00", "dinner", 16.02, 108.22)

		got := optimizeDayRoute([]types.ActivityDetail{far, dinner, near, lunch})

		require.Len(t, got, 4)
		assert.Equal(t, []string{"12:00", "14:00", "15:00", "18:00"},
			[]string{got[0].Time, got[1].Time, got[2].Time, got[3].Time})
		assert.Equal(t, "lunch", got[0].ActivityType)
		assert.Equal(t, near.PlaceName, got[1].PlaceName, "the closer stop takes the earlier slot")
		assert.Equal(t, far.PlaceName, got[2].PlaceName)
		assert.Equal(t, "dinner", got[3].ActivityType)
	})

	t.Run("stops without coordinates go last in their window", func(t *testing.T) {
		lunch := act("12:00", "lunch", 16.00, 108.20)
		unknown := types.ActivityDetail{Time: "13:00", ActivityType: "visit", PlaceName: "unknown"}
		known := act("16:00", "visit", 16.10, 108.30)

		got := optimizeDayRoute([]types.ActivityDetail{lunch, unknown, known})

		require.Len(t, got, 3)
		assert.Equal(t, known.PlaceName, got[1].PlaceName)
		assert.Equal(t, "13:00", got[1].Time)
		assert.Equal(t, "unknown", got[2].PlaceName)
	})

	t.Run("short days are untouched", func(t *testing.T) {
		in := []types.ActivityDetail{act("14:00", "visit", 1, 1), act("08:00", "visit", 2, 2)}
		assert.Equal(t, in, optimizeDayRoute(in))
	})

	t.Run("activities sharing a meal time are kept", func(t *testing.T) {
		in := []types.ActivityDetail{
			act("12:00", "lunch", 16, 108),
			act("12:00", "visit", 16.1, 108.1),
			act("09:00", "visit", 16.2, 108.2),
		}
		got := optimizeDayRoute(in)
		require.Len(t, got, 3)
		assert.Equal(t, "09:00", got[0].Time)
	})
}

func TestDayDistanceKm(t *testing.T) {
	acts := []types.ActivityDetail{
		act("08:00", "visit", 16.00, 108.2),
		{Time: "10:00", ActivityType: "visit"},
		act("12:00", "lunch", 16.01, 108.2),
		act("14:00", "visit", 16.02, 108.2),
	}
	assert.Equal(t, 1.1, dayDistanceKm(acts))
	assert.Equal(t, 0.0, dayDistanceKm(nil))
}

func TestIsOpenAt(t *testing.T) {
	tests := []struct {
		hours string
		slot  string
		want  bool
	}{
		{"", "08:30", true},
		{"08:00-17:00", "08:30", true},
		{"08:00 - 17:00", "17:00", false},
		{"17:00-23:00", "10:30", false},
		{"18:00-02:00", "01:00", true},
		{"7h00-22h00", "21:59", true},
		{"Đóng cửa", "10:00", false},
		{"Mở cửa 24/7", "03:00", true},
		{"Thứ 2 - Chủ nhật", "10:00", true},
		{"08:00-11:00, 13:30-17:00", "12:00", false},
		{"08:00-11:00, 13:30-17:00", "14:00", true},
	}
	for _, tt := range tests {
		t.Run(tt.hours+"@"+tt.slot, func(t *testing.T) {
			assert.Equal(t, tt.want, isOpenAt(tt.hours, tt.slot))
		})
	}
}

func TestFormatBudget(t *testing.T) {
	tests := map[int]string{
		2_000_000: "2 triệu VND",
		1_500_000: "1.5 triệu VND",
		500_000:   "500k VND",
		1_000:     "1k VND",
		950:       "950 VND",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatBudget(in))
	}
}

func TestIsLikelyIndoor(t *testing.T) {
	assert.True(t, isLikelyIndoor(types.Place{Name: "Bảo tàng Điêu khắc Chăm"}))
	assert.True(t, isLikelyIndoor(types.Place{Name: "Cộng", Category: "Cafe"}))
	assert.True(t, isLikelyIndoor(types.Place{Name: "Vincom Mall"}))
	assert.False(t, isLikelyIndoor(types.Place{Name: "Bãi biển Mỹ Khê", Category: "Biển & Bãi Biển"}))
}

func TestMapPreferences(t *testing.T) {
	assert.Equal(t, []string{"Biển & Bãi Biển", "Bảo Tàng & Triển Lãm"},
		mapPreferences([]string{"Beach", "attractions", "ẩm thực"}))
	assert.Empty(t, mapPreferences(nil))
}

func TestCityVariants(t *testing.T) {
	table := map[string][]string{
		"hồ chí minh": {"hồ chí minh", "ho chi minh", "sài gòn", "saigon", "hcm"},
		"huế":         {"huế", "hue", "thừa thiên huế"},
	}
	assert.Equal(t, []string{"Sài Gòn", "hồ chí minh", "ho chi minh", "saigon", "hcm"}, cityVariants("Sài Gòn", table))
	assert.Equal(t, []string{"Cần Thơ"}, cityVariants("Cần Thơ", table))
}

func TestCacheStore(t *testing.T) {
	ctx := context.Background()
	store := NewCacheStore(0)

	_, err := store.Save(ctx, "  ", "x", "y", nil)
	assert.ErrorIs(t, err, ErrMissingSession)

	first, err := store.Save(ctx, "s1", "Đà Nẵng 2 ngày", "Ngày 1 ...", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.NotNil(t, first.Places)
	second, err := store.Save(ctx, "s1", "Huế", "", []map[string]any{{"place_id": "p1"}})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	list := store.List(ctx, "s1")
	require.Len(t, list, 2)
	assert.Equal(t, "Đà Nẵng 2 ngày", list[0].Title)
	assert.Equal(t, "Huế", list[1].Title)

	assert.Empty(t, store.List(ctx, "other"))
	assert.NotNil(t, store.List(ctx, "other"))
}
