package domain

import "time"

// TTL est la durée de visibilité d'une entité. Paramètre fixe du système.
const TTL = 24 * time.Hour

// Cutoff renvoie l'instant avant lequel une entité n'est plus visible.
func Cutoff(now time.Time) time.Time {
	return now.Add(-TTL)
}

// IsVisible est vrai tant que now - ts < TTL. La borne exacte de 24h est exclue.
func IsVisible(ts, now time.Time) bool {
	return ts.After(Cutoff(now))
}

func IsExpired(ts, now time.Time) bool {
	return !IsVisible(ts, now)
}
