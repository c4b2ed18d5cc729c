// Package logs declares the AWS::Logs resource types used by the stack.
package logs

import (
	"github.com/wpstack/wpstack/resources"
)

// LogGroup represents AWS::Logs::LogGroup.
type LogGroup struct {
	resources.Tagged
	LogGroupName    any `json:"LogGroupName,omitempty"`
	RetentionInDays int `json:"RetentionInDays,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r LogGroup) ResourceType() string { return "AWS::Logs::LogGroup" }
