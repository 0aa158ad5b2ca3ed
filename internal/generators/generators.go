// Package generators holds the question generators of the trivia registry. Each
// generator is a pure function of one catalog topic.
package generators

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"

	"trivia-bot/internal/app"
	"trivia-bot/internal/domain"
)

// Topic field names shared with the catalog loaders.
const (
	FieldTitle       = "title"
	FieldBlurb       = "blurb"
	FieldPassive     = "passive"
	FieldAllyTips    = "allytips"
	FieldEnemyTips   = "enemytips"
	FieldSkins       = "skins"
	FieldDescription = "description"
	FieldPlaintext   = "plaintext"
	FieldGoldTotal   = "gold.total"
	FieldGoldSell    = "gold.sell"
	FieldCooldown    = "cooldown"

	// StatPrefix marks item stat entries in Topic.Numbers, e.g. "stats.Attack Damage".
	StatPrefix = "stats."
)

// All returns every generator. The slice is freshly built on each call.
func All() []app.Generator {
	return []app.Generator{
		{Name: "spell_name_from_champion", Kind: domain.KindChampion, Build: spellNameFromChampion},
		{Name: "spell_name_from_description", Kind: domain.KindChampion, Build: spellNameFromDescription},
		{Name: "champion_from_title", Kind: domain.KindChampion, Build: championFromTitle},
		{Name: "champion_from_spell_name", Kind: domain.KindChampion, Build: championFromSpellName},
		{Name: "champion_from_enemytips", Kind: domain.KindChampion, Build: championFromEnemyTips},
		{Name: "champion_from_allytips", Kind: domain.KindChampion, Build: championFromAllyTips},
		{Name: "champion_from_blurb", Kind: domain.KindChampion, Build: championFromBlurb},
		{Name: "champion_from_skins", Kind: domain.KindChampion, Build: championFromSkins},
		{Name: "champion_from_passive", Kind: domain.KindChampion, Build: championFromPassive},
		{Name: "item_from_description", Kind: domain.KindItem, Build: itemFromDescription},
		{Name: "item_from_plaintext", Kind: domain.KindItem, Build: itemFromPlaintext},
		{Name: "item_gold_cost", Kind: domain.KindItem, Build: itemGoldCost},
		{Name: "item_gold_sell", Kind: domain.KindItem, Build: itemGoldSell},
		{Name: "item_stat", Kind: domain.KindItem, Build: itemStat},
		{Name: "summoner_from_description", Kind: domain.KindSummonerSpell, Build: summonerFromDescription},
		{Name: "summoner_cooldown", Kind: domain.KindSummonerSpell, Build: summonerCooldown},
	}
}

// ByName returns the named generators, or an error naming the first unknown one.
func ByName(names ...string) ([]app.Generator, error) {
	all := All()
	index := make(map[string]app.Generator, len(all))
	for _, g := range all {
		index[g.Name] = g
	}
	out := make([]app.Generator, 0, len(names))
	for _, name := range names {
		g, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("unknown generator %q", name)
		}
		out = append(out, g)
	}
	return out, nil
}

func pickAbility(t domain.Topic) (domain.Ability, error) {
	abilities, err := t.RequireAbilities()
	if err != nil {
		return domain.Ability{}, err
	}
	return abilities[rand.IntN(len(abilities))], nil
}

func abilityNames(t domain.Topic) []string {
	names := make([]string, 0, len(t.Abilities))
	for _, a := range t.Abilities {
		names = append(names, a.Name)
	}
	return names
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Champions

func spellNameFromChampion(t domain.Topic) (string, string, error) {
	ability, err := pickAbility(t)
	if err != nil {
		return "", "", err
	}
	if ability.Key == "" {
		return "", "", fmt.Errorf("%w: %s ability %q has no key", domain.ErrFieldMissing, t.Name, ability.Name)
	}
	key := strings.ToUpper(ability.Key[len(ability.Key)-1:])
	return fmt.Sprintf("What's the name of %s's %s?", t.Name, key), ability.Name, nil
}

func spellNameFromDescription(t domain.Topic) (string, string, error) {
	ability, err := pickAbility(t)
	if err != nil {
		return "", "", err
	}
	if ability.Description == "" {
		return "", "", fmt.Errorf("%w: %s ability %q has no description", domain.ErrFieldMissing, t.Name, ability.Name)
	}
	description := Redact(StripTags(ability.Description), t.Name, ability.Name)
	return fmt.Sprintf("What's the name of the following spell? \"%s\"", description), ability.Name, nil
}

func championFromTitle(t domain.Topic) (string, string, error) {
	title, err := t.TextField(FieldTitle)
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("Which champion has the title \"%s\"?", title), t.Name, nil
}

func championFromSpellName(t domain.Topic) (string, string, error) {
	ability, err := pickAbility(t)
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("Which champion has a skill called \"%s\"?", ability.Name), t.Name, nil
}

func championFromEnemyTips(t domain.Topic) (string, string, error) {
	tips, err := championTips(t, FieldEnemyTips)
	if err != nil {
		return "", "", err
	}
	return "Which champion are you playing against if you should follow these tips?\n" + tips, t.Name, nil
}

func championFromAllyTips(t domain.Topic) (string, string, error) {
	tips, err := championTips(t, FieldAllyTips)
	if err != nil {
		return "", "", err
	}
	return "Which champion do you have in your team if you should follow these tips?\n" + tips, t.Name, nil
}

func championTips(t domain.Topic, field string) (string, error) {
	tips, err := t.ListField(field)
	if err != nil {
		return "", err
	}
	names := append([]string{t.Name}, abilityNames(t)...)
	return Redact(StripTags(strings.Join(tips, " ")), names...), nil
}

func championFromBlurb(t domain.Topic) (string, string, error) {
	blurb, err := t.TextField(FieldBlurb)
	if err != nil {
		return "", "", err
	}
	return "Which champion's lore is this? " + Redact(StripTags(blurb), t.Name), t.Name, nil
}

func championFromSkins(t domain.Topic) (string, string, error) {
	skins, err := t.ListField(FieldSkins)
	if err != nil {
		return "", "", err
	}
	// The first entry is the default skin, which is just the champion's name.
	if len(skins) < 2 {
		return "", "", fmt.Errorf("%w: %s has no skins beyond the default", domain.ErrFieldMissing, t.Name)
	}
	listed := Redact(strings.Join(skins[1:], ", "), t.Name)
	return "Which champion's skins are these? " + listed, t.Name, nil
}

func championFromPassive(t domain.Topic) (string, string, error) {
	passive, err := t.TextField(FieldPassive)
	if err != nil {
		return "", "", err
	}
	return "Which champion's passive is this? " + Redact(StripTags(passive), t.Name), t.Name, nil
}

// Items

func itemFromDescription(t domain.Topic) (string, string, error) {
	description, err := t.TextField(FieldDescription)
	if err != nil {
		return "", "", err
	}
	return "Which item is this? " + Redact(StripTags(description), t.Name), t.Name, nil
}

func itemFromPlaintext(t domain.Topic) (string, string, error) {
	plaintext, err := t.TextField(FieldPlaintext)
	if err != nil {
		return "", "", err
	}
	return "Which item is this? " + Redact(plaintext, t.Name), t.Name, nil
}

func itemGoldCost(t domain.Topic) (string, string, error) {
	gold, err := t.NumberField(FieldGoldTotal)
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("How much is %s?", t.Name), formatNumber(gold), nil
}

func itemGoldSell(t domain.Topic) (string, string, error) {
	gold, err := t.NumberField(FieldGoldSell)
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("How much does %s sell for?", t.Name), formatNumber(gold), nil
}

// itemStat fails with ErrFieldMissing for items without stats (e.g. consumables),
// which makes the registry draw another generator.
func itemStat(t domain.Topic) (string, string, error) {
	stats := make([]string, 0, len(t.Numbers))
	for key := range t.Numbers {
		if strings.HasPrefix(key, StatPrefix) {
			stats = append(stats, key)
		}
	}
	if len(stats) == 0 {
		return "", "", fmt.Errorf("%w: %s %q has no stats", domain.ErrFieldMissing, t.Kind, t.Name)
	}
	sort.Strings(stats)
	key := stats[rand.IntN(len(stats))]
	stat := strings.TrimPrefix(key, StatPrefix)
	return fmt.Sprintf("How much %s does %s give you?", stat, t.Name), formatNumber(t.Numbers[key]), nil
}

// Summoner spells

func summonerFromDescription(t domain.Topic) (string, string, error) {
	description, err := t.TextField(FieldDescription)
	if err != nil {
		return "", "", err
	}
	return "Which summoner spell is this? " + Redact(StripTags(description), t.Name), t.Name, nil
}

func summonerCooldown(t domain.Topic) (string, string, error) {
	cooldown, err := t.TextField(FieldCooldown)
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("What's the cooldown of \"%s\" in seconds?", t.Name), cooldown, nil
}
