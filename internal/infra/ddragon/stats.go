package ddragon

import (
	"math"
	"strings"
	"unicode"
)

// readableStat turns a Data Dragon stat key such as "FlatPhysicalDamageMod" into a label
// players would type ("Attack Damage"). Percent stats are scaled to whole percentages.
func readableStat(key string, value float64) (string, float64) {
	name := strings.TrimSuffix(key, "Mod")
	percent := false
	switch {
	case strings.HasPrefix(name, "Flat"):
		name = strings.TrimPrefix(name, "Flat")
	case strings.HasPrefix(name, "Percent"):
		name = strings.TrimPrefix(name, "Percent")
		percent = true
	}
	if alias, ok := statAliases[name]; ok {
		name = alias
	} else {
		name = splitCamel(name)
	}
	if percent {
		return "% " + name, math.Round(value*10000) / 100
	}
	return name, value
}

var statAliases = map[string]string{
	"PhysicalDamage": "Attack Damage",
	"MagicDamage":    "Ability Power",
	"HPPool":         "Health",
	"MPPool":         "Mana",
	"HPRegen":        "Health Regen",
	"MPRegen":        "Mana Regen",
	"CritChance":     "Critical Strike Chance",
	"SpellBlock":     "Magic Resist",
	"LifeSteal":      "Life Steal",
}

func splitCamel(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && !unicode.IsUpper(runes[i-1]) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
