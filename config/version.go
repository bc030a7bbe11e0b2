package config

// 构建时通过 -ldflags "-X" 注入
var (
	Version    string = "dev"
	CommitHash string = ""
)

// VersionString 版本与提交信息
func VersionString() string {
	if CommitHash == "" {
		return Version
	}
	return Version + " (" + CommitHash + ")"
}
