package model

import "strings"

// MoodType 固定的八种心情枚举
type MoodType string

const (
	MoodHappy    MoodType = "HAPPY"
	MoodCalm     MoodType = "CALM"
	MoodExcited  MoodType = "EXCITED"
	MoodTired    MoodType = "TIRED"
	MoodStressed MoodType = "STRESSED"
	MoodSad      MoodType = "SAD"
	MoodAngry    MoodType = "ANGRY"
	MoodGrateful MoodType = "GRATEFUL"
)

// MoodTypes 全量枚举，顺序固定（统计输出按此顺序补零）
var MoodTypes = []MoodType{
	MoodHappy, MoodCalm, MoodExcited, MoodTired,
	MoodStressed, MoodSad, MoodAngry, MoodGrateful,
}

var moodEmojis = map[MoodType]string{
	MoodHappy:    "😊",
	MoodCalm:     "😌",
	MoodExcited:  "🤩",
	MoodTired:    "🥱",
	MoodStressed: "😣",
	MoodSad:      "😢",
	MoodAngry:    "😠",
	MoodGrateful: "🙏",
}

// PositiveMoods 参与排行榜正向评分的类型
var PositiveMoods = map[MoodType]bool{
	MoodHappy:    true,
	MoodCalm:     true,
	MoodExcited:  true,
	MoodGrateful: true,
}

func (t MoodType) String() string { return string(t) }

// Emoji 返回类型默认表情
func (t MoodType) Emoji() string { return moodEmojis[t] }

// ParseMoodType 大小写不敏感地解析枚举，未知返回 false
func ParseMoodType(code string) (MoodType, bool) {
	t := MoodType(strings.ToUpper(strings.TrimSpace(code)))
	if _, ok := moodEmojis[t]; !ok {
		return "", false
	}
	return t, true
}
