package intent

import "fmt"

func classificationPrompt(utterance string) string {
	return fmt.Sprintf(`
Phân tích câu hỏi của người dùng và trả về thông tin dưới dạng JSON với cấu trúc sau:

{
    "query_type": "general" | "nearby_search" | "specific_search" | "itinerary_request",
    "keywords": ["từ khóa 1", "từ khóa 2"],
    "keyword_variants": ["biến thể chính tả hoặc bản dịch của từ khóa"],
    "location_mentioned": "tên địa điểm đã chuẩn hóa, null nếu không có",
    "city": "tên thành phố/tỉnh đã chuẩn hóa (ví dụ 'Hồ Chí Minh', 'Hà Nội', 'Đà Nẵng'), null nếu không có",
    "district": "tên quận/huyện/phường đã chuẩn hóa (ví dụ 'Quận 1', 'Hoàn Kiếm'), null nếu không có",
    "min_rating": số từ 1.0 đến 5.0 nếu người dùng yêu cầu, null nếu không,
    "max_rating": số từ 1.0 đến 5.0 nếu người dùng yêu cầu, null nếu không,
    "price_range": "cheap" | "moderate" | "expensive" | null,
    "category": "loại hình địa điểm (restaurant, cafe, beach, museum, ...) hoặc null",
    "radius_km": số km nếu người dùng nêu (ví dụ "gần tôi 2km" -> 2), null nếu không,
    "number_of_places": số lượng địa điểm người dùng yêu cầu, null nếu không,
    "num_days": số ngày của lịch trình nếu có, null nếu không,
    "budget_amount": ngân sách bằng VND nếu có, null nếu không,
    "needs_semantic_search": true nếu câu hỏi mô tả không khí, phong cách hoặc trải nghiệm cần hiểu ngữ nghĩa,
    "vietnamese_query": "câu hỏi đã dịch sang tiếng Việt chuẩn",
    "corrected_query": "câu hỏi đã sửa lỗi chính tả, giữ nguyên ngôn ngữ gốc",
    "original_language": "vi" | "en" | "zh" | "ja" | "ko" | mã ngôn ngữ khác
}

Quy tắc phân loại (áp dụng theo đúng thứ tự ưu tiên):
1. "general": câu chào hỏi hoặc câu hỏi kiến thức chung, không tìm địa điểm.
2. "itinerary_request": người dùng muốn lên lịch trình nhiều ngày ("lịch trình", "kế hoạch đi", "3 ngày 2 đêm", "itinerary", "plan a trip").
3. "nearby_search": có bất kỳ cụm nào "gần tôi", "gần đây", "xung quanh", "quanh đây", "nearby", "around me", "trong vòng", "cách tôi". Quy tắc này thắng cả khi có tên thành phố.
4. "specific_search": có tên thành phố/quận cụ thể kèm ý định tìm địa điểm.
5. Còn lại: "general".

Câu hỏi của người dùng: "%s"

Chỉ trả về JSON, không thêm giải thích.
`, utterance)
}
