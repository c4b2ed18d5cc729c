// Package rds declares the AWS::RDS resource types used by the stack.
package rds

import (
	"github.com/wpstack/wpstack/resources"
)

// DBSubnetGroup represents AWS::RDS::DBSubnetGroup.
type DBSubnetGroup struct {
	resources.Tagged
	DBSubnetGroupName        string `json:"DBSubnetGroupName,omitempty"`
	DBSubnetGroupDescription string `json:"DBSubnetGroupDescription,omitempty"`
	SubnetIds                []any  `json:"SubnetIds,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r DBSubnetGroup) ResourceType() string { return "AWS::RDS::DBSubnetGroup" }

// DBInstance represents AWS::RDS::DBInstance.
//
// Attributes: Endpoint.Address, Endpoint.Port, DBInstanceArn.
type DBInstance struct {
	resources.Tagged
	DBInstanceIdentifier string `json:"DBInstanceIdentifier,omitempty"`
	DBName               string `json:"DBName,omitempty"`
	DBInstanceClass      string `json:"DBInstanceClass,omitempty"`
	Engine               string `json:"Engine,omitempty"`
	EngineVersion        string `json:"EngineVersion,omitempty"`
	AllocatedStorage     string `json:"AllocatedStorage,omitempty"`
	StorageType          string `json:"StorageType,omitempty"`
	MultiAZ              *bool  `json:"MultiAZ,omitempty"`
	Port                 string `json:"Port,omitempty"`
	PubliclyAccessible   *bool  `json:"PubliclyAccessible,omitempty"`
	DBSubnetGroupName    any    `json:"DBSubnetGroupName,omitempty"`
	VPCSecurityGroups    []any  `json:"VPCSecurityGroups,omitempty"`
	MasterUsername       any    `json:"MasterUsername,omitempty"`
	MasterUserPassword   any    `json:"MasterUserPassword,omitempty"`
	CopyTagsToSnapshot   bool   `json:"CopyTagsToSnapshot,omitempty"`
	StorageEncrypted     bool   `json:"StorageEncrypted,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r DBInstance) ResourceType() string { return "AWS::RDS::DBInstance" }
