package version

const (
	// Botのバージョン番号
	Version = "0.4.0"

	// SupportServerURL サポートサーバーのURL
	SupportServerURL = "https://discord.gg/AgzmhFk43Z"
)

// PatchNotes パッチノートの内容
var PatchNotes = []string{
	"/popmap に国の選択メニューとページ送りを追加しました。",
	"選択解除ボタンで強調表示を解除できるようになりました。",
	"/popmap-settings でサーバーごとの数値ロケールと既定の地域を設定できるようになりました。",
	"Webビューア（/ws）でクリック・ホバー操作に対応しました。",
}
