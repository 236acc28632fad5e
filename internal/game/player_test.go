package game

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayer_TakeDamage(t *testing.T) {
	tests := []struct {
		name       string
		status     Status
		hits       []int
		wantHealth int
		wantStatus Status
	}{
		{name: "single hit", status: StatusPlaying, hits: []int{35}, wantHealth: 65, wantStatus: StatusPlaying},
		{name: "clamped at zero", status: StatusPlaying, hits: []int{35, 35, 35}, wantHealth: 0, wantStatus: StatusGameOver},
		{name: "ignored in menu", status: StatusMenu, hits: []int{35}, wantHealth: MaxHealth, wantStatus: StatusMenu},
		{name: "non-positive ignored", status: StatusPlaying, hits: []int{0, -10}, wantHealth: MaxHealth, wantStatus: StatusPlaying},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlayer()
			p.SetStatus(tt.status)
			for _, h := range tt.hits {
				p.TakeDamage(h)
			}
			snap := p.Snapshot()
			assert.Equal(t, tt.wantHealth, snap.Health)
			assert.Equal(t, tt.wantStatus, snap.Status)
		})
	}
}

func TestPlayer_ShootAndReload(t *testing.T) {
	now := time.Unix(0, 0)
	p := NewPlayer()
	p.SetClock(func() time.Time { return now })
	p.Reset()

	for range MaxAmmo {
		require.True(t, p.Shoot())
	}
	assert.False(t, p.Shoot(), "empty magazine")

	p.Reload()
	assert.True(t, p.Snapshot().IsReloading)
	assert.False(t, p.Shoot(), "cannot shoot while reloading")

	now = now.Add(ReloadDelay - time.Millisecond)
	assert.Equal(t, 0, p.Snapshot().Ammo)

	now = now.Add(time.Millisecond)
	snap := p.Snapshot()
	assert.False(t, snap.IsReloading)
	assert.Equal(t, MaxAmmo, snap.Ammo)
}

func TestPlayer_Reset(t *testing.T) {
	p := NewPlayer()
	p.Reset()
	p.AddScore(KillScore)
	p.TakeDamage(HitDamage)

	p.Reset()
	snap := p.Snapshot()
	assert.Equal(t, StatusPlaying, snap.Status)
	assert.Equal(t, MaxHealth, snap.Health)
	assert.Equal(t, 0, snap.Score)
	assert.Equal(t, DefaultSpawn, snap.Transform.Position)
}

func TestWrapAngle(t *testing.T) {
	assert.InDelta(t, 0, WrapAngle(2*math.Pi), 1e-9)
	assert.InDelta(t, math.Pi, WrapAngle(math.Pi), 1e-9)
	assert.InDelta(t, math.Pi-0.1, WrapAngle(-math.Pi-0.1), 1e-9)
	assert.InDelta(t, -math.Pi/2, WrapAngle(3*math.Pi/2), 1e-9)
}

func TestClampToArena(t *testing.T) {
	p := ClampToArena(Vec3{100, 7, -100})
	assert.Equal(t, Vec3{MapSize / 2, 7, -MapSize / 2}, p)
}
