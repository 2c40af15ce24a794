package insights

import (
	"regexp"
	"strings"
)

// CategoryOther collects confident tasks that match no bucket.
const CategoryOther = "other"

type category struct {
	name     string
	patterns []*regexp.Regexp
}

// Buckets are checked in order; the first match wins, so narrower technical
// buckets come before the broad social one.
var categories = []category{
	{"netcode/desync", compileAll(
		`\bdesync\b`, `netcode`, `\b(registr|hit reg)`, `packet`, `sync`,
		`latenc`, `rubberband`, `compensat`,
	)},
	{"performance/fps", compileAll(
		`\bfps\b`, `stutter`, `frame`, `perf(ormance)?`, `optimi[sz]`,
		`gpu`, `cpu`, `drops?`,
	)},
	{"stability/crashes", compileAll(
		`crash`, `ctd`, `freeze`, `fatal`, `hang`, `memory`,
		`game is not working`, `wont work`,
	)},
	{"matchmaking/servers", compileAll(
		`server`, `matchmaking`, `queue`, `timeout`, `disconnect`, `dc\b`,
	)},
	{"weapon/ai balance", compileAll(
		`weapon`, `gun`, `balance`, `ttk`, `time to kill`, `ai\b`,
		`damage`, `unbalance`, `meta`,
	)},
	{"pvp experience", compileAll(
		`\bpvp\b`, `third person`, `tpv`, `camp`, `spawn`, `grief`, `toxic`,
	)},
	{"pve/mission loop", compileAll(
		`\bpve\b`, `mission`, `quest`, `objective`, `loop`, `variety`,
		`reward`, `loot`,
	)},
	{"ui/ux/controls", compileAll(
		`\bui\b`, `menu`, `hud`, `inventory`, `controls?`, `bind`, `map`, `cursor`,
	)},
	{"bugs/polish", compileAll(
		`\bbug(s)?\b`, `glitch`, `polish`, `jank`,
	)},
	{"anti-cheat", compileAll(
		`cheat`, `aimbot`, `wallhack`, `anti-?cheat`, `cheater`,
	)},
	{"social experience", compileAll(
		`\bcoop\b`, `\bco[- ]?op\b`, `multiplayer`, `teamplay`, `team play`,
		`friends?`, `party`, `group`, `match with`, `invite`, `join (friends|party)`,
		`social`, `communication`, `chat`, `voice chat`, `mic`, `talk`, `text chat`,
		`grief`, `toxic`, `troll`, `kick(ed)?`, `report system`, `match with randoms`,
		`bad teammates?`, `team(?:mate)?s? (?:dont|won't|wont|never) (?:help|revive|play)`,
		`buddy`, `buddies`, `ally`, `revive`, `rescue`, `support`, `assist`, `bounty`,
	)},
}

func compileAll(exprs ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		compiled[i] = regexp.MustCompile(expr)
	}
	return compiled
}

// Categorize buckets a lowercased task description into a dev-focus
// category. Unmatched tasks land in "other"; empty input yields "".
func Categorize(task string) string {
	if task == "" {
		return ""
	}
	lowered := strings.ToLower(task)
	for _, cat := range categories {
		for _, pattern := range cat.patterns {
			if pattern.MatchString(lowered) {
				return cat.name
			}
		}
	}
	return CategoryOther
}
