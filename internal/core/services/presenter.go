package services

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/custodia-labs/pocketbot/internal/core/domain"
)

// Message texts. Messages are sent with HTML parse mode.
const (
	textLoginPrompt         = "Hello! You can use me to get articles from your GetPocket account."
	textAuthLink            = "Please press the button below to connect your Telegram account to <a href=\"https://getpocket.com/\">Pocket</a>."
	textSomethingWentWrong  = "Something went wrong 🤦🏻‍♂️. Please, try again. If the problem persists, contact the developer."
	textAuthorized          = "Authorization successful. You can now use the bot."
	textAuthorizationFailed = "Authorization failed. Please, try again."
	textAlreadyAuthorized   = "You are already authorized."
	textMainMenu            = "Main Menu:"
	textListEmpty           = "Your list is empty."
	textListFailed          = "Could not load your list. Please, try again."
)

// Button labels
const (
	labelLogin     = "🌐 Login via Pocket"
	labelAuthorize = "Authorize Pocket"
	labelMyList    = "🗂 My List"
	labelMainMenu  = "🏠 Main Menu"
	labelPrev      = "« Prev"
	labelNext      = "Next »"
)

const maxButtonLabel = 60

// renderDecision turns a state machine decision into a chat message.
func renderDecision(d domain.Decision) domain.OutgoingMessage {
	switch d.Outcome {
	case domain.OutcomeLoginPrompt:
		return domain.OutgoingMessage{Text: textLoginPrompt, Keyboard: loginKeyboard()}
	case domain.OutcomeAuthLink:
		return domain.OutgoingMessage{
			Text:                  textAuthLink,
			Keyboard:              (&domain.Keyboard{}).Row(domain.Button{Label: labelAuthorize, URL: d.AuthURL}),
			DisableWebPagePreview: true,
		}
	case domain.OutcomeLoginFailed:
		return domain.OutgoingMessage{Text: textSomethingWentWrong}
	case domain.OutcomeAuthorized:
		return domain.OutgoingMessage{Text: textAuthorized}
	case domain.OutcomeAuthorizationFailed:
		return domain.OutgoingMessage{Text: textAuthorizationFailed}
	case domain.OutcomeAlreadyAuthorized:
		return domain.OutgoingMessage{Text: textAlreadyAuthorized}
	case domain.OutcomeMainMenu:
		return mainMenuMessage()
	default:
		return domain.OutgoingMessage{Text: textSomethingWentWrong}
	}
}

func loginKeyboard() *domain.Keyboard {
	return (&domain.Keyboard{}).Row(domain.Button{Label: labelLogin, Action: domain.ActionLogin})
}

func mainMenuMessage() domain.OutgoingMessage {
	return domain.OutgoingMessage{
		Text:     textMainMenu,
		Keyboard: (&domain.Keyboard{}).Row(domain.Button{Label: labelMyList, Action: domain.ActionMyList}),
	}
}

func backToMainMenuKeyboard() *domain.Keyboard {
	return (&domain.Keyboard{}).Row(domain.Button{Label: labelMainMenu, Action: domain.ActionMainMenu})
}

func genericErrorMessage() domain.OutgoingMessage {
	return domain.OutgoingMessage{Text: textSomethingWentWrong}
}

// renderListPage shows one page of items as link buttons with paging.
func renderListPage(page *domain.ListPage) domain.OutgoingMessage {
	if len(page.Items) == 0 && page.Offset == 0 {
		return domain.OutgoingMessage{Text: textListEmpty, Keyboard: backToMainMenuKeyboard()}
	}

	kb := &domain.Keyboard{}
	for _, item := range page.Items {
		if item.URL() == "" {
			continue
		}
		kb.Row(domain.Button{Label: truncate(item.Title(), maxButtonLabel), URL: item.URL()})
	}

	var nav []domain.Button
	if page.Offset > 0 {
		prev := page.Offset - page.Count
		if prev < 0 {
			prev = 0
		}
		nav = append(nav, domain.Button{Label: labelPrev, Action: listAction(prev)})
	}
	if page.HasMore {
		nav = append(nav, domain.Button{Label: labelNext, Action: listAction(page.Offset + len(page.Items))})
	}
	if len(nav) > 0 {
		kb.Row(nav...)
	}
	kb.Row(domain.Button{Label: labelMainMenu, Action: domain.ActionMainMenu})

	var text string
	if len(page.Items) == 0 {
		text = "No more items."
	} else {
		text = fmt.Sprintf("<b>My List</b> (%d–%d):", page.Offset+1, page.Offset+len(page.Items))
	}
	return domain.OutgoingMessage{Text: text, Keyboard: kb}
}

func listFailedMessage() domain.OutgoingMessage {
	return domain.OutgoingMessage{Text: textListFailed, Keyboard: backToMainMenuKeyboard()}
}

func listAction(offset int) string {
	if offset == 0 {
		return domain.ActionMyList
	}
	return domain.CallbackData{Action: domain.ActionMyList, Arg: strconv.Itoa(offset)}.String()
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}
