package telegram

import (
	"strconv"
	"strings"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
	"github.com/aliskhannn/certitester-bot/internal/service"
)

// Callback action constants.
const (
	actionOption   = "opt"
	actionSubmit   = "sub"
	actionNav      = "nav"
	actionBank     = "bank"
	actionMode     = "mode"
	actionExam     = "exam"
	actionConfirm  = "cf"
	actionSettings = "set"
	actionHistory  = "hist"
	actionDetails  = "det"
)

// Exam sub-actions.
const (
	examStart  = "start"
	examSubmit = "submit"
	examEnd    = "end"
	examAbort  = "abort"
)

// Settings sub-actions.
const (
	settingsTranslation = "tr"
	settingsAutoNext    = "next"
	settingsAutoSubmit  = "auto"
	settingsLanguage    = "lang"
)

const (
	confirmYes = "y"
	confirmNo  = "n"
)

// callbackData represents structured callback data.
type callbackData struct {
	Action string
	Params []string
	Raw    string
}

// encode creates callback string.
func (cd callbackData) encode() string {
	if len(cd.Params) == 0 {
		return cd.Action
	}
	return cd.Action + ":" + strings.Join(cd.Params, ":")
}

// decodeCallback parses callback data string.
func decodeCallback(data string) callbackData {
	parts := strings.Split(data, ":")
	return callbackData{
		Action: parts[0],
		Params: parts[1:],
		Raw:    data,
	}
}

// param returns the i-th parameter or "" when it is missing.
func (cd callbackData) param(i int) string {
	if i < 0 || i >= len(cd.Params) {
		return ""
	}
	return cd.Params[i]
}

// intParam parses the i-th parameter as a non-negative integer.
func (cd callbackData) intParam(i int) (int, bool) {
	n, err := strconv.Atoi(cd.param(i))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func buildOptionCallback(pos, option int) string {
	return callbackData{
		Action: actionOption,
		Params: []string{strconv.Itoa(pos), strconv.Itoa(option)},
	}.encode()
}

func buildSubmitCallback(pos int) string {
	return callbackData{
		Action: actionSubmit,
		Params: []string{strconv.Itoa(pos)},
	}.encode()
}

func buildNavCallback(pos int) string {
	return callbackData{
		Action: actionNav,
		Params: []string{strconv.Itoa(pos)},
	}.encode()
}

func buildBankCallback(key string) string {
	return callbackData{
		Action: actionBank,
		Params: []string{key},
	}.encode()
}

func buildModeCallback(mode entities.Mode) string {
	return callbackData{
		Action: actionMode,
		Params: []string{string(mode)},
	}.encode()
}

func buildExamCallback(subAction string, value ...string) string {
	params := []string{subAction}
	params = append(params, value...)
	return callbackData{
		Action: actionExam,
		Params: params,
	}.encode()
}

func buildConfirmCallback(kind service.ConfirmKind, accepted bool) string {
	answer := confirmNo
	if accepted {
		answer = confirmYes
	}
	return callbackData{
		Action: actionConfirm,
		Params: []string{string(kind), answer},
	}.encode()
}

func buildSettingsCallback(subAction string) string {
	return callbackData{
		Action: actionSettings,
		Params: []string{subAction},
	}.encode()
}

func buildHistoryCallback() string {
	return actionHistory
}

func buildDetailsCallback(resultID string) string {
	return callbackData{
		Action: actionDetails,
		Params: []string{resultID},
	}.encode()
}
