package service

import (
	"context"
	"strings"

	"qp-hub-backend/internal/sequencer"
	"qp-hub-backend/internal/upstream"
	"qp-hub-backend/pkg/utils"
)

// Forwarder is the outbound side of the proxy.
type Forwarder interface {
	PostJSON(ctx context.Context, targetURL, path, authorization string, body any) (*upstream.Result, error)
	PostRaw(ctx context.Context, targetURL, path, authorization, contentType string, body []byte) *upstream.Result
}

// Destination identifies where and as whom rows are submitted.
type Destination struct {
	TargetURL     string
	Authorization string
	// Password is the initial password for users that do not carry one.
	Password string
}

const msgTargetRequired = "대상 URL과 API Token이 필요합니다."

// CheckDestination requires both values and normalizes the target URL.
func CheckDestination(targetURL, authorization string) (string, error) {
	if strings.TrimSpace(targetURL) == "" || strings.TrimSpace(authorization) == "" {
		return "", utils.NewRequiredError(msgTargetRequired)
	}
	target, err := utils.ValidateTargetURL(targetURL)
	if err != nil {
		return "", utils.NewValidationError("targetUrl", targetURL)
	}
	return target, nil
}

func outcome(res *upstream.Result, err error) sequencer.Outcome {
	if err != nil {
		return sequencer.Outcome{Success: false, Message: err.Error()}
	}
	return sequencer.Outcome{Success: res.Success, Status: res.Status, Message: res.Message}
}
