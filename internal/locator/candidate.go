package locator

import (
	"fmt"

	"emiteNota/internal/browser"
)

// By: способ описания кандидата
type By string

const (
	ByCSS          By = "css"
	ByXPath        By = "xpath"
	ByID           By = "id"
	ByName         By = "name"
	ByPlaceholder  By = "placeholder"   // подстрока placeholder
	ByText         By = "text"          // точный нормализованный текст
	ByTextContains By = "text_contains" // подстрока текста
	ByValue        By = "value"         // атрибут value (input type=button/submit)
	ByRole         By = "role"
)

// Candidate: один дескриптор селектора в LocatorStrategy
type Candidate struct {
	By    By     `yaml:"by"`
	Value string `yaml:"value"`
	Tag   string `yaml:"tag,omitempty"`
}

func CSS(v string) Candidate               { return Candidate{By: ByCSS, Value: v} }
func XPath(v string) Candidate             { return Candidate{By: ByXPath, Value: v} }
func ID(tag, v string) Candidate           { return Candidate{By: ByID, Value: v, Tag: tag} }
func Name(tag, v string) Candidate         { return Candidate{By: ByName, Value: v, Tag: tag} }
func Placeholder(tag, v string) Candidate  { return Candidate{By: ByPlaceholder, Value: v, Tag: tag} }
func Text(tag, v string) Candidate         { return Candidate{By: ByText, Value: v, Tag: tag} }
func TextContains(tag, v string) Candidate { return Candidate{By: ByTextContains, Value: v, Tag: tag} }
func ValueAttr(tag, v string) Candidate    { return Candidate{By: ByValue, Value: v, Tag: tag} }

// Selector компилирует дескриптор в строку селектора драйвера (CSS или xpath=...)
func (c Candidate) Selector() (string, error) {
	if c.Value == "" {
		return "", fmt.Errorf("пустое значение кандидата (%s)", c.By)
	}

	switch c.By {
	case ByCSS:
		return c.Value, nil
	case ByXPath:
		return browser.XPathPrefix + trimXPathPrefix(c.Value), nil
	case ByID:
		return c.Tag + "[id=" + browser.CSSString(c.Value) + "]", nil
	case ByName:
		return c.Tag + "[name=" + browser.CSSString(c.Value) + "]", nil
	case ByPlaceholder:
		return tagOr(c.Tag, "input") + "[placeholder*=" + browser.CSSString(c.Value) + "]", nil
	case ByValue:
		return tagOr(c.Tag, "input") + "[value=" + browser.CSSString(c.Value) + "]", nil
	case ByRole:
		return c.Tag + "[role=" + browser.CSSString(c.Value) + "]", nil
	case ByText:
		return browser.XPathPrefix + "//" + tagOr(c.Tag, "*") + "[normalize-space(.)=" + browser.XPathLiteral(c.Value) + "]", nil
	case ByTextContains:
		return browser.XPathPrefix + "//" + tagOr(c.Tag, "*") + "[contains(normalize-space(.), " + browser.XPathLiteral(c.Value) + ")]", nil
	default:
		return "", fmt.Errorf("неизвестный тип кандидата: %q", c.By)
	}
}

func (c Candidate) String() string {
	sel, err := c.Selector()
	if err != nil {
		return fmt.Sprintf("%s:%s", c.By, c.Value)
	}
	return sel
}

func tagOr(tag, def string) string {
	if tag == "" {
		return def
	}
	return tag
}

func trimXPathPrefix(v string) string {
	xp, _ := browser.SplitXPath(v)
	return xp
}
