package api

// MessageResponse is the plain acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type ItemResponse struct {
	Message string      `json:"message"`
	Item    interface{} `json:"item"`
}

type OrderResponse struct {
	Message string      `json:"message"`
	Order   interface{} `json:"order"`
}

type OrderIDResponse struct {
	OrderID string `json:"orderId"`
}

type RollupResponse struct {
	Message   string      `json:"message"`
	Analytics interface{} `json:"analytics"`
}

type TelegramUpdateResponse struct {
	Message    string      `json:"message"`
	LastUpdate interface{} `json:"lastUpdate"`
}

type ListResponse struct {
	Object string      `json:"object"`
	Data   interface{} `json:"data"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
