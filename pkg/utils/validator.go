package utils

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return errors.Errorf("포트는 1-65535 범위여야 합니다: %d", port)
	}
	return nil
}

// ParsePort parses and range-checks a port string.
func ParsePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.Wrap(err, "포트 파싱 실패")
	}
	if err := ValidatePort(port); err != nil {
		return 0, err
	}
	return port, nil
}

// ValidateTargetURL accepts absolute http(s) URLs and returns them without a trailing slash.
func ValidateTargetURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrap(err, "잘못된 targetUrl")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.Errorf("targetUrl은 http 또는 https 여야 합니다: %s", raw)
	}
	if u.Host == "" {
		return "", errors.Errorf("targetUrl에 호스트가 없습니다: %s", raw)
	}
	return strings.TrimRight(raw, "/"), nil
}
