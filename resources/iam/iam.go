// Package iam declares the AWS::IAM resource types used by the stack.
package iam

import (
	"github.com/wpstack/wpstack/resources"
)

// Role represents AWS::IAM::Role.
//
// Attributes: Arn, RoleId.
type Role struct {
	resources.Tagged
	RoleName                 any           `json:"RoleName,omitempty"`
	Description              string        `json:"Description,omitempty"`
	AssumeRolePolicyDocument any           `json:"AssumeRolePolicyDocument,omitempty"`
	ManagedPolicyArns        []any         `json:"ManagedPolicyArns,omitempty"`
	Policies                 []Role_Policy `json:"Policies,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r Role) ResourceType() string { return "AWS::IAM::Role" }

// Role_Policy is an inline role policy.
type Role_Policy struct {
	PolicyName     string `json:"PolicyName,omitempty"`
	PolicyDocument any    `json:"PolicyDocument,omitempty"`
}

// InstanceProfile represents AWS::IAM::InstanceProfile.
//
// Attributes: Arn.
type InstanceProfile struct {
	Roles []any `json:"Roles,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r InstanceProfile) ResourceType() string { return "AWS::IAM::InstanceProfile" }
