package models

// Well-known keys of the config bag
const (
	ConfigChatEnabled        = "chatEnabled"
	ConfigCBU                = "cbu"
	ConfigDailyWithdrawLimit = "dailyWithdrawLimit"
)

// Settings is the loosely typed config bag. Unknown keys are kept as is.
type Settings map[string]interface{}

// ChatEnabled defaults to true when the key was never written
func (s Settings) ChatEnabled() bool {
	v, ok := s[ConfigChatEnabled].(bool)
	if !ok {
		return true
	}
	return v
}

func (s Settings) CBU() string {
	v, _ := s[ConfigCBU].(string)
	return v
}

// DailyWithdrawLimit returns the configured limit and whether one was set
func (s Settings) DailyWithdrawLimit() (float64, bool) {
	switch v := s[ConfigDailyWithdrawLimit].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}
