// Package intrinsics provides CloudFormation intrinsic functions.
//
// This package re-exports the core intrinsic types from cloudformation-schema-go
// and adds IAM policy and Secrets Manager helpers.
//
// Core intrinsic functions:
//
//	Ref{LogicalName: "Vpc"} → {"Ref": "Vpc"}
//	Sub{String: "${AWS::StackName}-db"} → {"Fn::Sub": "${AWS::StackName}-db"}
//	Join{Delimiter: "", Values: []any{"a", "b"}} → {"Fn::Join": ["", ["a", "b"]]}
//
// Pseudo-parameters:
//
//	AWS_REGION, AWS_ACCOUNT_ID, AWS_STACK_NAME, etc.
package intrinsics

import (
	"encoding/json"

	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

type (
	// Ref represents a CloudFormation Ref intrinsic function.
	Ref = intrinsics.Ref

	// GetAtt represents a CloudFormation Fn::GetAtt intrinsic function.
	GetAtt = intrinsics.GetAtt

	// Sub represents a CloudFormation Fn::Sub intrinsic function.
	Sub = intrinsics.Sub

	// SubWithMap is Fn::Sub with a variable map.
	SubWithMap = intrinsics.SubWithMap

	// Join represents a CloudFormation Fn::Join intrinsic function.
	Join = intrinsics.Join

	// Select represents a CloudFormation Fn::Select intrinsic function.
	Select = intrinsics.Select

	// GetAZs represents a CloudFormation Fn::GetAZs intrinsic function.
	GetAZs = intrinsics.GetAZs

	// Base64 represents a CloudFormation Fn::Base64 intrinsic function.
	Base64 = intrinsics.Base64

	// Split represents a CloudFormation Fn::Split intrinsic function.
	Split = intrinsics.Split

	// Tag represents a CloudFormation resource tag.
	Tag = intrinsics.Tag
)

// Param creates a Ref for a CloudFormation parameter.
var Param = intrinsics.Param

// AvailabilityZone selects the index-th zone of the stack's region.
func AvailabilityZone(index int) Select {
	return Select{Index: index, List: GetAZs{Region: ""}}
}

// ResolveSecret builds a Secrets Manager dynamic reference to one JSON key of
// a secret's SecretString. secretID may be a literal ARN/name or a Ref to a
// secret declared in the same stack.
//
//	{{resolve:secretsmanager:<secretID>:SecretString:<jsonKey>}}
func ResolveSecret(secretID any, jsonKey string) Join {
	return Join{
		Delimiter: "",
		Values: []any{
			"{{resolve:secretsmanager:",
			secretID,
			":SecretString:" + jsonKey + "}}",
		},
	}
}

// SecretJSONKey builds the ECS "valueFrom" form that injects one JSON key of
// a Secrets Manager secret into a container:
//
//	<secretArn>:<jsonKey>::
func SecretJSONKey(secretArn any, jsonKey string) Join {
	return Join{
		Delimiter: "",
		Values:    []any{secretArn, ":" + jsonKey + "::"},
	}
}

// JoinList is Fn::Join over a list-valued expression, such as the
// NameServers attribute of a hosted zone:
//
//	{"Fn::Join": [",", {"Fn::GetAtt": ["HostedZone", "NameServers"]}]}
type JoinList struct {
	Delimiter string
	List      any
}

// MarshalJSON serializes to Fn::Join syntax.
func (j JoinList) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"Fn::Join": []any{j.Delimiter, j.List},
	})
}
