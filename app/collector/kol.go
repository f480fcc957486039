package collector

import (
	"strings"

	"github.com/lysyi3m/news-comb/app/record"
)

type KOL struct {
	Name   string `yaml:"name"`
	Handle string `yaml:"handle"`
	UID    string `yaml:"uid"`
	Tier   string `yaml:"tier"`
}

func (k KOL) tier() string {
	if k.Tier == "" {
		return record.TierB
	}
	return k.Tier
}

func (k KOL) apply(r *record.Record) {
	r.IsKOL = true
	r.KOLTier = k.tier()
}

func findKOLByHandle(kols []KOL, handle string) (KOL, bool) {
	for _, kol := range kols {
		if kol.Handle != "" && strings.EqualFold(kol.Handle, handle) {
			return kol, true
		}
	}
	return KOL{}, false
}

func findKOLByName(kols []KOL, name string) (KOL, bool) {
	for _, kol := range kols {
		if kol.Name != "" && kol.Name == name {
			return kol, true
		}
	}
	return KOL{}, false
}
