package breaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()

	assert.Equal(t, int64(5), cfg.FailureThreshold)
	assert.Equal(t, int64(2), cfg.SuccessThreshold)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, 120*time.Second, cfg.SamplingDuration)
	assert.Equal(t, int64(10), cfg.MinimumThroughput)
	assert.Equal(t, float64(50), cfg.PercentageThreshold)
	assert.Equal(t, StrategyConsecutive, cfg.Strategy)
}

func TestConfigBuilders(t *testing.T) {
	base := Config{}.withDefaults()

	modified := base.
		WithName("payments.charge").
		WithFailureThreshold(3).
		WithSuccessThreshold(1).
		WithTimeout(30 * time.Second).
		WithSamplingDuration(time.Minute).
		WithMinimumThroughput(20).
		WithPercentageThreshold(75).
		WithStrategy(StrategyRollingWindow)

	assert.Equal(t, "payments.charge", modified.Name)
	assert.Equal(t, int64(3), modified.FailureThreshold)
	assert.Equal(t, int64(1), modified.SuccessThreshold)
	assert.Equal(t, 30*time.Second, modified.Timeout)
	assert.Equal(t, time.Minute, modified.SamplingDuration)
	assert.Equal(t, int64(20), modified.MinimumThroughput)
	assert.Equal(t, float64(75), modified.PercentageThreshold)
	assert.Equal(t, StrategyRollingWindow, modified.Strategy)

	// With* 返回副本，原值不受影响
	assert.Equal(t, "", base.Name)
	assert.Equal(t, int64(5), base.FailureThreshold)
	assert.Equal(t, StrategyConsecutive, base.Strategy)
}

func TestSettingsDefaults(t *testing.T) {
	s := &Settings{}
	s.setDefaults()

	assert.Equal(t, "default", s.Default)
	assert.Contains(t, s.Stores, "default")
	assert.Equal(t, DriverMemory, s.Stores["default"].Driver)
	assert.Equal(t, PrimaryKeyUUID, s.PrimaryKeyType)
	assert.Equal(t, "circuit_breakers", s.TableNames.CircuitBreakers)
	assert.Equal(t, "circuit_breaker_events", s.TableNames.CircuitBreakerEvents)
	assert.True(t, s.Events.Enabled)
	assert.True(t, s.Fallbacks.Enabled)
	assert.NoError(t, s.validate())
}

func TestSettingsStrategyDefault(t *testing.T) {
	s := &Settings{Strategies: StrategySettings{Default: StrategyPercentage}}
	s.setDefaults()
	assert.Equal(t, StrategyPercentage, s.Defaults.Strategy)

	// Defaults.Strategy 显式设置时优先
	s2 := &Settings{
		Defaults:   Config{Strategy: StrategyRollingWindow},
		Strategies: StrategySettings{Default: StrategyPercentage},
	}
	s2.setDefaults()
	assert.Equal(t, StrategyRollingWindow, s2.Defaults.Strategy)
}

func TestSettingsValidate(t *testing.T) {
	s := &Settings{PrimaryKeyType: "serial"}
	s.setDefaults()
	assert.ErrorIs(t, s.validate(), ErrInvalidPrimaryKeyType)
}
