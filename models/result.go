package models

// ResultStatus is the numeric tag clients switch on.
type ResultStatus int

const (
	StatusFail           ResultStatus = 0
	StatusSuccess        ResultStatus = 1
	StatusSessionExpired ResultStatus = 2
)

// Result is the uniform envelope every operation returns. Exactly one of
// the three shapes is produced: Success carries Data, Fail carries a Code,
// SessionExpired carries neither.
type Result struct {
	Status  ResultStatus `json:"status"`
	Message string       `json:"message"`
	Code    string       `json:"code,omitempty"`
	Data    interface{}  `json:"data"`

	// Err is the underlying failure, kept for callers that need errors.Is.
	Err error `json:"-"`
}

func Success(message string, data interface{}) Result {
	return Result{Status: StatusSuccess, Message: message, Data: data}
}

func Fail(code, message string, err error) Result {
	return Result{Status: StatusFail, Message: message, Code: code, Err: err}
}

func SessionExpired(message string, err error) Result {
	if message == "" {
		message = "Session expired"
	}
	return Result{Status: StatusSessionExpired, Message: message, Err: err}
}

func (r Result) OK() bool {
	return r.Status == StatusSuccess
}
