package common

const (
	RedisStreamBotRunSummary = "bot.run.summary"

	RedisLockPrefix    = "lock:"
	RedisLockBotRunner = "bot-runner:run"
)
