package provider

import (
	"fmt"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
)

// ProviderError はプロバイダが返したエラーメッセージをそのまま保持します。
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// Is は domain.ErrProvider との比較を可能にします。
func (e *ProviderError) Is(target error) bool {
	return target == domain.ErrProvider
}

func newProviderError(status int, format string, args ...any) *ProviderError {
	return &ProviderError{StatusCode: status, Message: fmt.Sprintf(format, args...)}
}

// timeoutError はタスクIDを含むタイムアウトエラーを作ります。
func timeoutError(taskID string, attempts int) error {
	return fmt.Errorf("%w: task %s did not finish within %d attempts", domain.ErrTimeout, taskID, attempts)
}
