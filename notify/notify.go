package notify

import (
	"go.uber.org/zap"

	"nft-marketplace-onchain/model"
)

// Notifier はユーザーに一時的な通知 (トースト) を出す
type Notifier interface {
	Loading(message string)
	Success(message string)
	Error(message string)
	Dismiss()
	// Alert は操作を中断してユーザーに確認を促す
	Alert(message string)
}

// Navigator はクライアント側の画面遷移を行う
type Navigator interface {
	Navigate(route string)
}

// Surface は1ページ分の通知と遷移
type Surface interface {
	Notifier
	Navigator
}

// Console はCLI用の Surface (zap に出力する)
type Console struct{}

func (Console) Loading(message string) { zap.S().Infof("… %s", message) }
func (Console) Success(message string) { zap.S().Infof("✓ %s", message) }
func (Console) Error(message string)   { zap.S().Errorf("✗ %s", message) }
func (Console) Dismiss()               {}
func (Console) Alert(message string)   { zap.S().Warn(message) }
func (Console) Navigate(route string)  { zap.S().Debugf("navigate -> %s", route) }

func toast(kind model.NotificationKind, message string) model.Notification {
	return model.Notification{Kind: kind, Message: message}
}
