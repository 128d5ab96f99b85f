package composer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/FACorreiaa/go-vietspot-suggestions/internal/types"
)

type promptPlace struct {
	Index        int      `json:"index"`
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Category     string   `json:"category"`
	Rating       *float64 `json:"rating"`
	RatingCount  int      `json:"rating_count"`
	PriceLevel   *int     `json:"price_level"`
	DistanceKm   *float64 `json:"distance_km"`
	Phone        string   `json:"phone"`
	Website      string   `json:"website"`
	OpeningHours string   `json:"opening_hours"`
	About        string   `json:"about"`
}

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]+`)

func cleanText(s string) string {
	s = controlChars.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func languageInstruction(lang string) string {
	switch lang {
	case "", "vi":
		return "Trả lời bằng tiếng Việt tự nhiên, thân thiện"
	case "en":
		return "Respond in natural, friendly English"
	case "zh":
		return "用自然友好的中文回答"
	case "ja":
		return "自然で親しみやすい日本語で回答してください"
	case "ko":
		return "자연스럽고 친근한 한국어로 답변하세요"
	default:
		return fmt.Sprintf("Respond in the user's language (%s), naturally and friendly", lang)
	}
}

func weatherBlock(w *types.Weather) string {
	if w == nil {
		return ""
	}
	return fmt.Sprintf(`
Thông tin thời tiết hiện tại:
- Nhiệt độ: %.1f°C
- Cảm giác như: %.1f°C
- Mô tả: %s
- Độ ẩm: %d%%
`, w.Temp, w.FeelsLike, w.Description, w.Humidity)
}

func selectionPrompt(utterance string, candidates []types.Candidate, maxPlaces int, weather *types.Weather, lang string) (string, error) {
	places := make([]promptPlace, 0, len(candidates))
	for i, c := range candidates {
		places = append(places, promptPlace{
			Index:        i,
			ID:           c.ID,
			Name:         cleanText(c.Name),
			Address:      cleanText(c.Address),
			Category:     cleanText(c.Category),
			Rating:       c.Rating,
			RatingCount:  c.RatingCount,
			PriceLevel:   c.PriceLevel,
			DistanceKm:   c.DistanceKm,
			Phone:        cleanText(c.Phone),
			Website:      cleanText(c.Website),
			OpeningHours: cleanText(c.OpeningHours),
			About:        truncateRunes(cleanText(c.About), 200),
		})
	}
	body, err := json.MarshalIndent(places, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode candidates: %w", err)
	}

	return fmt.Sprintf(`
Bạn là trợ lý du lịch thông minh VietSpot. Nhiệm vụ của bạn:
1. CHỌN các địa điểm PHÙ HỢP NHẤT từ danh sách
2. TẠO câu trả lời tự nhiên, thân thiện giới thiệu các địa điểm đã chọn

Câu hỏi của người dùng: "%s"

Danh sách địa điểm ứng viên (%d địa điểm):
%s
%s
BƯỚC 1: CHỌN ĐỊA ĐIỂM
- Chọn TỐI ĐA %d địa điểm phù hợp nhất
- Ưu tiên: đánh giá cao, thông tin rõ ràng, gần người dùng, phù hợp ngữ cảnh

BƯỚC 2: TẠO CÂU TRẢ LỜI
- %s
- Sử dụng markdown với **bold** cho tên địa điểm

Trả về JSON với cấu trúc:
{
    "selected_indices": [0, 2, 5],
    "answer": "Câu trả lời chi tiết giới thiệu các địa điểm..."
}

Chỉ trả về JSON, không thêm giải thích.
`, utterance, len(places), body, weatherBlock(weather), maxPlaces, languageInstruction(lang)), nil
}
