package transport

// TransferRequest moves money between two wallet records.
type TransferRequest struct {
	FromID int64   `json:"from_id"`
	ToID   int64   `json:"to_id"`
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
}

// VerifyCodeRequest checks a presented admin access code.
type VerifyCodeRequest struct {
	Code string `json:"code"`
}
