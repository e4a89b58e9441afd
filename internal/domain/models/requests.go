package models

// Requests for HTTP and Kafka inputs. Defined in domain for consistency and reuse.

type PriceCheckRequest struct {
	Month         int     `json:"month" validate:"required,gte=1,lte=12"`
	CommodityName string  `json:"commodity_name" validate:"required"`
	MarketName    string  `json:"market_name" validate:"required"`
	ActualPrice   float64 `json:"actual_price" validate:"required,gt=0,lte=1000000"`
}

// PriceCheckResponse keeps the flat shape existing clients consume.
type PriceCheckResponse struct {
	AnalysisResult
	Input PriceCheckRequest `json:"input"`
}

type AnomaliesRequest struct {
	Market string `query:"market" json:"market"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}

// PriceReport is a citizen-submitted observation read from the reports topic.
type PriceReport struct {
	ReportID      string  `json:"report_id"`
	Month         int     `json:"month" validate:"gte=1,lte=12"`
	CommodityName string  `json:"commodity_name" validate:"required"`
	MarketName    string  `json:"market_name" validate:"required"`
	Price         float64 `json:"price" validate:"gt=0,lte=1000000"`
}
