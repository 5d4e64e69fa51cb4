package bank

import "portfolio-chatbot/internal/intent"

// triggeredLine pairs a pre-normalized trigger phrase with its canned
// response.
type triggeredLine struct {
	trigger  string
	response string
}

// weightedLine is a general response with a weight for random selection.
type weightedLine struct {
	response string
	weight   int
}

type staticBank struct {
	triggered []triggeredLine
	general   []weightedLine
}

var greetingBank = staticBank{
	triggered: []triggeredLine{
		{trigger: "chao buoi sang", response: "Chào buổi sáng! Chúc bạn một ngày tốt lành. Mình có thể giúp gì cho bạn?"},
		{trigger: "chao buoi toi", response: "Chào buổi tối! Bạn muốn tìm hiểu gì về portfolio này?"},
	},
	general: []weightedLine{
		{response: "Xin chào! Mình là trợ lý ảo của trang portfolio này. Bạn muốn xem dự án, kỹ năng hay thông tin liên hệ?", weight: 3},
		{response: "Chào bạn! Rất vui được gặp. Hỏi mình bất cứ điều gì về chủ nhân trang web nhé.", weight: 2},
		{response: "Hello! Mình có thể kể cho bạn nghe về các dự án, bài viết và kinh nghiệm làm việc. Bắt đầu từ đâu nhỉ?", weight: 1},
	},
}

var helpBank = staticBank{
	triggered: []triggeredLine{
		{trigger: "lam duoc gi", response: "Mình có thể giới thiệu về dự án, kỹ năng, bài viết blog và cách liên hệ. Bạn cũng có thể bảo mình \"chuyển tới projects\" hoặc \"bật dark mode\"."},
		{trigger: "doi giao dien", response: "Bạn chỉ cần nói \"bật dark mode\" hoặc \"bật light mode\" là mình đổi giao diện ngay."},
	},
	general: []weightedLine{
		{response: "Mình hỗ trợ mấy việc này: xem dự án (\"kể về dự án\"), kỹ năng (\"bạn biết công nghệ gì\"), liên hệ (\"email của bạn\"), và điều hướng (\"chuyển tới blog\").", weight: 2},
		{response: "Cứ hỏi tự nhiên nhé! Ví dụ: \"dự án gần đây là gì?\", \"làm sao để liên hệ?\", hoặc \"bật dark mode\".", weight: 1},
	},
}

var defaultBank = staticBank{
	general: []weightedLine{
		{response: "Hmm, mình chưa hiểu ý bạn lắm. Bạn có thể hỏi về dự án, kỹ năng, blog hoặc cách liên hệ nhé!", weight: 3},
		{response: "Câu này hơi khó với mình. Thử hỏi \"kể về dự án của bạn\" hoặc \"kỹ năng của bạn là gì\" xem sao?", weight: 2},
		{response: "Mình chỉ là chatbot nhỏ của trang portfolio thôi. Mình rành nhất về dự án, kỹ năng và bài viết của chủ nhân.", weight: 1},
	},
}

// Static fallbacks for the dynamic banks, used when the content store is
// unreachable or empty.

var projectsBank = staticBank{
	triggered: []triggeredLine{
		{trigger: "du an moi", response: "Dự án mới nhất đang được cập nhật. Bạn ghé trang Projects để xem danh sách đầy đủ nhé!"},
	},
	general: []weightedLine{
		{response: "Mình có nhiều dự án thú vị về web và backend. Ghé trang Projects để xem chi tiết từng dự án nhé!", weight: 2},
		{response: "Danh sách dự án nằm ở trang Projects, có mô tả và demo cho từng dự án.", weight: 1},
	},
}

var skillsBank = staticBank{
	triggered: []triggeredLine{
		{trigger: "ngon ngu lap trinh", response: "Mình làm việc với nhiều ngôn ngữ và framework hiện đại. Chi tiết có ở trang About nhé!"},
	},
	general: []weightedLine{
		{response: "Kỹ năng chính xoay quanh phát triển web full-stack. Trang About có danh sách công nghệ đầy đủ.", weight: 1},
	},
}

var contactBank = staticBank{
	triggered: []triggeredLine{
		{trigger: "so dien thoai", response: "Thông tin liên hệ đầy đủ (email, điện thoại, mạng xã hội) có ở trang Contact nhé!"},
	},
	general: []weightedLine{
		{response: "Bạn có thể liên hệ qua form ở trang Contact, hoặc qua email và mạng xã hội được liệt kê ở đó.", weight: 1},
	},
}

// fallbacks are the per-intent hardcoded sentences for when even bank
// rendering fails. Every intent the router can resolve has one.
var fallbacks = map[string]string{
	intent.Projects: "Mình có nhiều dự án hay lắm, bạn ghé trang Projects xem thử nhé!",
	intent.Skills:   "Danh sách kỹ năng và công nghệ có ở trang About nhé!",
	intent.About:    "Bạn có thể tìm hiểu thêm về mình ở trang About nhé!",
	intent.Contact:  "Thông tin liên hệ có ở trang Contact, rất vui được kết nối với bạn!",
	intent.Blog:     "Blog của mình có nhiều bài viết về lập trình, ghé đọc thử nhé!",
	intent.Greeting: "Xin chào! Mình có thể giúp gì cho bạn?",
	intent.Help:     "Bạn có thể hỏi mình về dự án, kỹ năng, blog hoặc cách liên hệ nhé!",
	intent.Default:  "Xin lỗi, mình chưa hiểu lắm. Bạn thử hỏi về dự án, kỹ năng hoặc liên hệ xem sao?",
}
