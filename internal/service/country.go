package service

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// iso2Codes ISO-3166-1 alpha-2 官方分配的全部代码
var iso2Codes = strings.Fields(`
AD AE AF AG AI AL AM AO AQ AR AS AT AU AW AX AZ BA BB BD BE BF BG BH BI BJ
BL BM BN BO BQ BR BS BT BV BW BY BZ CA CC CD CF CG CH CI CK CL CM CN CO CR
CU CV CW CX CY CZ DE DJ DK DM DO DZ EC EE EG EH ER ES ET FI FJ FK FM FO FR
GA GB GD GE GF GG GH GI GL GM GN GP GQ GR GS GT GU GW GY HK HM HN HR HT HU
ID IE IL IM IN IO IQ IR IS IT JE JM JO JP KE KG KH KI KM KN KP KR KW KY KZ
LA LB LC LI LK LR LS LT LU LV LY MA MC MD ME MF MG MH MK ML MM MN MO MP MQ
MR MS MT MU MV MW MX MY MZ NA NC NE NF NG NI NL NO NP NR NU NZ OM PA PE PF
PG PH PK PL PM PN PR PS PT PW PY QA RE RO RS RU RW SA SB SC SD SE SG SH SI
SJ SK SL SM SN SO SR SS ST SV SX SY SZ TC TD TF TG TH TJ TK TL TM TN TO TR
TT TV TW TZ UA UG UM US UY UZ VA VC VE VG VI VN VU WF WS YE YT ZA ZM ZW`)

// CountryService 国家归一化（ISO2/ISO3、旗帜 emoji、英文国名 → ISO2）
type CountryService struct {
	iso2   map[string]bool
	byName map[string]string
}

func NewCountryService() *CountryService {
	set := make(map[string]bool, len(iso2Codes))
	names := make(map[string]string, len(iso2Codes))
	namer := display.English.Regions()
	for _, c := range iso2Codes {
		set[c] = true
		if r, err := language.ParseRegion(c); err == nil {
			if name := namer.Name(r); name != "" {
				names[strings.ToLower(name)] = c
			}
		}
	}
	return &CountryService{iso2: set, byName: names}
}

// Normalize 将输入归一化为大写 ISO2；无法识别返回 ErrInvalidCountry
func (s *CountryService) Normalize(input string) (string, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return "", ErrCountryRequired
	}
	if cc, ok := decodeFlagEmoji(raw); ok && s.iso2[cc] {
		return cc, nil
	}
	up := strings.ToUpper(raw)
	if len(up) == 2 && s.iso2[up] {
		return up, nil
	}
	// ISO3（以及其他 CLDR 认得的写法）折算回 ISO2
	if r, err := language.ParseRegion(raw); err == nil {
		if cc := r.String(); len(cc) == 2 && s.iso2[cc] {
			return cc, nil
		}
	}
	// 英文国名
	if cc, ok := s.byName[strings.ToLower(raw)]; ok {
		return cc, nil
	}
	return "", ErrInvalidCountry
}

// IsValid 判断输入能否归一化
func (s *CountryService) IsValid(input string) bool {
	_, err := s.Normalize(input)
	return err == nil
}

// decodeFlagEmoji 把两个 regional indicator 码点还原为 ISO2
func decodeFlagEmoji(s string) (string, bool) {
	if utf8.RuneCountInString(s) != 2 {
		return "", false
	}
	const base = 0x1F1E6 // regional indicator 'A'
	var out [2]byte
	i := 0
	for _, r := range s {
		off := int(r) - base
		if off < 0 || off > 25 {
			return "", false
		}
		out[i] = byte('A' + off)
		i++
	}
	return string(out[:]), true
}
