package lifecycle

import "AidLink/internal/models"

// 警报状态表；resolved 与 false-alarm 为终态
var alertTransitions = map[string][]string{
	models.AlertActive:     {models.AlertInProgress, models.AlertResolved, models.AlertFalseAlarm},
	models.AlertInProgress: {models.AlertResolved, models.AlertFalseAlarm},
}

// 求助状态表；pending -> accepted 只能经由 AcceptRequest
var requestTransitions = map[string][]string{
	models.RequestPending:    {models.RequestCancelled},
	models.RequestAccepted:   {models.RequestInProgress, models.RequestCancelled},
	models.RequestInProgress: {models.RequestCompleted},
}

// CanTransitionAlert 警报状态是否可达
func CanTransitionAlert(from, to string) bool {
	return models.OneOf(to, alertTransitions[from])
}

// CanTransitionRequest 求助状态是否可经状态更新到达
func CanTransitionRequest(from, to string) bool {
	return models.OneOf(to, requestTransitions[from])
}
