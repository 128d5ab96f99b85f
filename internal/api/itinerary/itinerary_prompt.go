package itinerary

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api/weather"
	"github.com/FACorreiaa/go-vietspot-suggestions/internal/types"
)

func weatherSummary(w *types.Weather) string {
	if w == nil {
		return "Không có thông tin thời tiết"
	}
	return fmt.Sprintf("Nhiệt độ: %.1f°C (cảm giác như %.1f°C)\nThời tiết: %s\nĐộ ẩm: %d%%\nLời khuyên: %s",
		w.Temp, w.FeelsLike, w.Description, w.Humidity, weather.Advice(w))
}

func formatPlaceLine(i int, p types.Place) string {
	rating := "N/A"
	if p.Rating != nil {
		rating = strconv.FormatFloat(*p.Rating, 'f', -1, 64)
	}
	address := []rune(p.Address)
	if len(address) > 50 {
		address = address[:50]
	}
	line := fmt.Sprintf("%d. %s | %s | ⭐%s | %s", i, p.Name, p.Category, rating, string(address))
	if p.Coordinates != nil {
		line += fmt.Sprintf(" (%g,%g)", p.Coordinates.Lat, p.Coordinates.Lon)
	}
	return line
}

func formatPlaces(pool []types.Candidate, limit int) string {
	lines := make([]string, 0, min(len(pool), limit))
	for i, c := range pool {
		if i == limit {
			break
		}
		lines = append(lines, formatPlaceLine(i+1, c.Place))
	}
	return strings.Join(lines, "\n")
}

func planPrompt(req types.ItineraryRequest, pool []types.Candidate, maxPlaces int, w *types.Weather) string {
	var weatherContext string
	if w != nil {
		weatherContext = fmt.Sprintf(`
THÔNG TIN THỜI TIẾT:
%s
- Nếu trời mưa/nóng: ưu tiên địa điểm trong nhà
- Nếu trời đẹp: có thể tham quan ngoài trời
`, weatherSummary(w))
	}

	preferences := "Khám phá tổng quát"
	if len(req.Preferences) > 0 {
		preferences = strings.Join(req.Preferences, ", ")
	}
	var extra []string
	if cats := mapPreferences(req.Preferences); len(cats) > 0 {
		extra = append(extra, "- Ưu tiên loại hình: "+strings.Join(cats, ", "))
	}
	if req.MaxBudget != nil && *req.MaxBudget > 0 {
		extra = append(extra, "- Ngân sách tối đa: "+formatBudget(*req.MaxBudget))
	} else if req.Budget != "" {
		extra = append(extra, "- Ngân sách: "+req.Budget)
	}

	return fmt.Sprintf(`Bạn là chuyên gia lập lịch trình du lịch Việt Nam.

DANH SÁCH ĐỊA ĐIỂM TẠI %[1]s:
%[2]s

%[3]s

YÊU CẦU:
- Tạo lịch trình %[4]d ngày tại %[5]s
- Sở thích: %[6]s
- Giờ bắt đầu: %[7]s, kết thúc: %[8]s
%[9]s

HƯỚNG DẪN:
1. CHỌN địa điểm từ danh sách trên (dùng đúng tên và thông tin)
2. Mỗi ngày 4-6 hoạt động, mỗi ngày có CHỦ ĐỀ KHÁC NHAU
3. Sắp xếp địa điểm gần nhau trong cùng ngày
4. Đa dạng loại hình: bãi biển, bảo tàng, di tích, tham quan
5. Không lặp lại địa điểm giữa các ngày
6. LẤY ĐÚNG TỌA ĐỘ (latitude, longitude) từ danh sách nếu có

TRẢ VỀ JSON:
{
  "destination": "%[5]s",
  "num_days": %[4]d,
  "itinerary": [
    {
      "day": 1,
      "theme": "Chủ đề ngày 1",
      "activities": [
        {
          "time": "08:00",
          "duration_minutes": 90,
          "activity_type": "visit",
          "place_name": "Tên địa điểm từ danh sách",
          "address": "Địa chỉ đầy đủ",
          "latitude": 10.123456,
          "longitude": 107.123456,
          "rating": 4.5,
          "category": "Category",
          "description": "Mô tả hoạt động"
        }
      ],
      "total_activities": 5
    }
  ],
  "summary": "Tóm tắt lịch trình",
  "total_places": 15,
  "tips": ["Tip 1", "Tip 2"]
}

CHỈ TRẢ VỀ JSON, KHÔNG THÊM TEXT.`,
		strings.ToUpper(req.Destination),
		formatPlaces(pool, maxPlaces),
		weatherContext,
		req.NumDays,
		req.Destination,
		preferences,
		orDefault(req.StartTime, "08:00"),
		orDefault(req.EndTime, "22:00"),
		strings.Join(extra, "\n"),
	)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
