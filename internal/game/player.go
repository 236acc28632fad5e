package game

import (
	"sync"
	"time"
)

// Status is the local player's game status shown by the UI.
type Status string

const (
	StatusMenu     Status = "MENU"
	StatusPlaying  Status = "PLAYING"
	StatusGameOver Status = "GAME_OVER"
)

// Transform is a position plus Euler rotation sample.
type Transform struct {
	Position Vec3
	Rotation Vec3
}

// Player holds the local player's gameplay state (health, ammo, score).
// Hits arrive from transport goroutines while the view ticks on its own,
// so every accessor takes the lock.
type Player struct {
	mu          sync.Mutex
	status      Status
	health      int
	ammo        int
	score       int
	reloadUntil time.Time
	transform   Transform

	now func() time.Time
}

// NewPlayer returns a player in the menu with full health and ammo.
func NewPlayer() *Player {
	return &Player{
		status:    StatusMenu,
		health:    MaxHealth,
		ammo:      MaxAmmo,
		transform: Transform{Position: DefaultSpawn},
		now:       time.Now,
	}
}

// SetClock replaces the time source (tests).
func (p *Player) SetClock(now func() time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}

// Snapshot is a read-only copy of the player state.
type Snapshot struct {
	Status      Status
	Health      int
	Ammo        int
	MaxAmmo     int
	Score       int
	IsReloading bool
	Transform   Transform
}

// Snapshot returns a copy of the current state, finishing a pending reload if due.
func (p *Player) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finishReload()
	return Snapshot{
		Status:      p.status,
		Health:      p.health,
		Ammo:        p.ammo,
		MaxAmmo:     MaxAmmo,
		Score:       p.score,
		IsReloading: !p.reloadUntil.IsZero(),
		Transform:   p.transform,
	}
}

func (p *Player) SetStatus(s Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = s
}

func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Player) AddScore(points int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.score += points
}

// TakeDamage lowers health, clamped at zero. Reaching zero ends the game.
// Damage is ignored unless the player is playing.
func (p *Player) TakeDamage(amount int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != StatusPlaying || amount <= 0 {
		return
	}
	p.health = max(0, p.health-amount)
	if p.health == 0 {
		p.status = StatusGameOver
	}
}

// Shoot consumes one round. It returns false when empty or reloading.
func (p *Player) Shoot() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finishReload()
	if p.ammo > 0 && p.reloadUntil.IsZero() {
		p.ammo--
		return true
	}
	return false
}

// Reload starts a reload; ammo refills once ReloadDelay has elapsed.
func (p *Player) Reload() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.reloadUntil.IsZero() {
		return
	}
	p.reloadUntil = p.now().Add(ReloadDelay)
}

func (p *Player) finishReload() {
	if p.reloadUntil.IsZero() || p.now().Before(p.reloadUntil) {
		return
	}
	p.ammo = MaxAmmo
	p.reloadUntil = time.Time{}
}

// Reset starts a fresh round.
func (p *Player) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = StatusPlaying
	p.health = MaxHealth
	p.ammo = MaxAmmo
	p.score = 0
	p.reloadUntil = time.Time{}
	p.transform = Transform{Position: DefaultSpawn}
}

// SetTransform records the latest transform computed by the physics layer.
func (p *Player) SetTransform(t Transform) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transform = t
}

// Transform returns the latest local transform.
func (p *Player) Transform() Transform {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.transform
}
