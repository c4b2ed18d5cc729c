// Package secretsmanager declares the AWS::SecretsManager resource types
// used for generated database credentials.
package secretsmanager

import (
	"github.com/wpstack/wpstack/resources"
)

// Secret represents AWS::SecretsManager::Secret. Ref returns the secret ARN.
type Secret struct {
	resources.Tagged
	Name                 any                          `json:"Name,omitempty"`
	Description          string                       `json:"Description,omitempty"`
	GenerateSecretString *Secret_GenerateSecretString `json:"GenerateSecretString,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r Secret) ResourceType() string { return "AWS::SecretsManager::Secret" }

// Secret_GenerateSecretString asks Secrets Manager to generate the value.
// The generated string is stored under GenerateStringKey inside
// SecretStringTemplate.
type Secret_GenerateSecretString struct {
	SecretStringTemplate string `json:"SecretStringTemplate,omitempty"`
	GenerateStringKey    string `json:"GenerateStringKey,omitempty"`
	PasswordLength       int    `json:"PasswordLength,omitempty"`
	ExcludeCharacters    string `json:"ExcludeCharacters,omitempty"`
	ExcludePunctuation   bool   `json:"ExcludePunctuation,omitempty"`
}

// SecretTargetAttachment represents AWS::SecretsManager::SecretTargetAttachment.
// It writes the database connection details back into the secret.
type SecretTargetAttachment struct {
	SecretId   any    `json:"SecretId,omitempty"`
	TargetId   any    `json:"TargetId,omitempty"`
	TargetType string `json:"TargetType,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r SecretTargetAttachment) ResourceType() string {
	return "AWS::SecretsManager::SecretTargetAttachment"
}
