package domain

// BotStats is the aggregate usage snapshot served to the dashboard.
type BotStats struct {
	Guilds            int               `json:"guilds"`
	Commands24h       int               `json:"commands_24h"`
	UniqueUsers       int               `json:"unique_users"`
	UptimePercent     float64           `json:"uptime"`
	CommandsByHour    []int             `json:"commands_by_hour"`
	CommandCategories CommandCategories `json:"command_categories"`
}

// CommandCategories breaks the 24h command count down by category.
type CommandCategories struct {
	Moderation int `json:"moderation"`
	Fun        int `json:"fun"`
	Utility    int `json:"utility"`
	Music      int `json:"music"`
	Other      int `json:"other"`
}
