package devenv

// DoubanTestConfig points live tests at a real douban account. Tests
// that load it skip when dev/.state/douban_config.json5 is missing.
type DoubanTestConfig struct {
	Cookie string `json:"cookie"`
	UserID string `json:"user_id"`
}
