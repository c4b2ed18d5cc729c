// Package ec2 declares the AWS::EC2 resource types used by the stack.
package ec2

import (
	"github.com/wpstack/wpstack/resources"
)

// VPC represents AWS::EC2::VPC.
type VPC struct {
	resources.Tagged
	CidrBlock          any    `json:"CidrBlock,omitempty"`
	EnableDnsHostnames bool   `json:"EnableDnsHostnames,omitempty"`
	EnableDnsSupport   bool   `json:"EnableDnsSupport,omitempty"`
	InstanceTenancy    string `json:"InstanceTenancy,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r VPC) ResourceType() string { return "AWS::EC2::VPC" }

// InternetGateway represents AWS::EC2::InternetGateway.
type InternetGateway struct {
	resources.Tagged
}

// ResourceType returns the CloudFormation type name.
func (r InternetGateway) ResourceType() string { return "AWS::EC2::InternetGateway" }

// VPCGatewayAttachment represents AWS::EC2::VPCGatewayAttachment.
type VPCGatewayAttachment struct {
	InternetGatewayId any `json:"InternetGatewayId,omitempty"`
	VpcId             any `json:"VpcId,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r VPCGatewayAttachment) ResourceType() string { return "AWS::EC2::VPCGatewayAttachment" }

// Subnet represents AWS::EC2::Subnet.
type Subnet struct {
	resources.Tagged
	VpcId               any    `json:"VpcId,omitempty"`
	CidrBlock           string `json:"CidrBlock,omitempty"`
	AvailabilityZone    any    `json:"AvailabilityZone,omitempty"`
	MapPublicIpOnLaunch *bool  `json:"MapPublicIpOnLaunch,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r Subnet) ResourceType() string { return "AWS::EC2::Subnet" }

// RouteTable represents AWS::EC2::RouteTable.
type RouteTable struct {
	resources.Tagged
	VpcId any `json:"VpcId,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r RouteTable) ResourceType() string { return "AWS::EC2::RouteTable" }

// SubnetRouteTableAssociation represents AWS::EC2::SubnetRouteTableAssociation.
type SubnetRouteTableAssociation struct {
	RouteTableId any `json:"RouteTableId,omitempty"`
	SubnetId     any `json:"SubnetId,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r SubnetRouteTableAssociation) ResourceType() string {
	return "AWS::EC2::SubnetRouteTableAssociation"
}

// Route represents AWS::EC2::Route.
type Route struct {
	RouteTableId         any    `json:"RouteTableId,omitempty"`
	DestinationCidrBlock string `json:"DestinationCidrBlock,omitempty"`
	GatewayId            any    `json:"GatewayId,omitempty"`
	NatGatewayId         any    `json:"NatGatewayId,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r Route) ResourceType() string { return "AWS::EC2::Route" }

// EIP represents AWS::EC2::EIP.
type EIP struct {
	resources.Tagged
	Domain string `json:"Domain,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r EIP) ResourceType() string { return "AWS::EC2::EIP" }

// NatGateway represents AWS::EC2::NatGateway.
type NatGateway struct {
	resources.Tagged
	AllocationId any `json:"AllocationId,omitempty"`
	SubnetId     any `json:"SubnetId,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r NatGateway) ResourceType() string { return "AWS::EC2::NatGateway" }

// SecurityGroup represents AWS::EC2::SecurityGroup.
type SecurityGroup struct {
	resources.Tagged
	GroupName            string                  `json:"GroupName,omitempty"`
	GroupDescription     string                  `json:"GroupDescription,omitempty"`
	VpcId                any                     `json:"VpcId,omitempty"`
	SecurityGroupIngress []SecurityGroup_Ingress `json:"SecurityGroupIngress,omitempty"`
	SecurityGroupEgress  []SecurityGroup_Egress  `json:"SecurityGroupEgress,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r SecurityGroup) ResourceType() string { return "AWS::EC2::SecurityGroup" }

// SecurityGroup_Ingress is an inline ingress rule.
type SecurityGroup_Ingress struct {
	IpProtocol            string `json:"IpProtocol,omitempty"`
	FromPort              int    `json:"FromPort,omitempty"`
	ToPort                int    `json:"ToPort,omitempty"`
	CidrIp                any    `json:"CidrIp,omitempty"`
	SourceSecurityGroupId any    `json:"SourceSecurityGroupId,omitempty"`
	Description           string `json:"Description,omitempty"`
}

// SecurityGroup_Egress is an inline egress rule.
type SecurityGroup_Egress struct {
	IpProtocol                 string `json:"IpProtocol,omitempty"`
	FromPort                   int    `json:"FromPort,omitempty"`
	ToPort                     int    `json:"ToPort,omitempty"`
	CidrIp                     any    `json:"CidrIp,omitempty"`
	DestinationSecurityGroupId any    `json:"DestinationSecurityGroupId,omitempty"`
	Description                string `json:"Description,omitempty"`
}

// SecurityGroupIngress represents AWS::EC2::SecurityGroupIngress.
type SecurityGroupIngress struct {
	GroupId               any    `json:"GroupId,omitempty"`
	IpProtocol            string `json:"IpProtocol,omitempty"`
	FromPort              int    `json:"FromPort,omitempty"`
	ToPort                int    `json:"ToPort,omitempty"`
	CidrIp                any    `json:"CidrIp,omitempty"`
	SourceSecurityGroupId any    `json:"SourceSecurityGroupId,omitempty"`
	Description           string `json:"Description,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r SecurityGroupIngress) ResourceType() string { return "AWS::EC2::SecurityGroupIngress" }

// SecurityGroupEgress represents AWS::EC2::SecurityGroupEgress.
type SecurityGroupEgress struct {
	GroupId                    any    `json:"GroupId,omitempty"`
	IpProtocol                 string `json:"IpProtocol,omitempty"`
	FromPort                   int    `json:"FromPort,omitempty"`
	ToPort                     int    `json:"ToPort,omitempty"`
	CidrIp                     any    `json:"CidrIp,omitempty"`
	DestinationSecurityGroupId any    `json:"DestinationSecurityGroupId,omitempty"`
	Description                string `json:"Description,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r SecurityGroupEgress) ResourceType() string { return "AWS::EC2::SecurityGroupEgress" }

// LaunchTemplate represents AWS::EC2::LaunchTemplate.
type LaunchTemplate struct {
	LaunchTemplateName any                                `json:"LaunchTemplateName,omitempty"`
	LaunchTemplateData *LaunchTemplate_LaunchTemplateData `json:"LaunchTemplateData,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r LaunchTemplate) ResourceType() string { return "AWS::EC2::LaunchTemplate" }

// LaunchTemplate_LaunchTemplateData is the instance configuration.
type LaunchTemplate_LaunchTemplateData struct {
	ImageId            any                                `json:"ImageId,omitempty"`
	InstanceType       string                             `json:"InstanceType,omitempty"`
	IamInstanceProfile *LaunchTemplate_IamInstanceProfile `json:"IamInstanceProfile,omitempty"`
	SecurityGroupIds   []any                              `json:"SecurityGroupIds,omitempty"`
	UserData           any                                `json:"UserData,omitempty"`
	MetadataOptions    *LaunchTemplate_MetadataOptions    `json:"MetadataOptions,omitempty"`
	TagSpecifications  []LaunchTemplate_TagSpecification  `json:"TagSpecifications,omitempty"`
}

// LaunchTemplate_IamInstanceProfile names the instance profile by ARN.
type LaunchTemplate_IamInstanceProfile struct {
	Arn any `json:"Arn,omitempty"`
}

// LaunchTemplate_MetadataOptions configures IMDS.
type LaunchTemplate_MetadataOptions struct {
	HttpTokens              string `json:"HttpTokens,omitempty"`
	HttpPutResponseHopLimit int    `json:"HttpPutResponseHopLimit,omitempty"`
}

// LaunchTemplate_TagSpecification tags resources created at launch.
type LaunchTemplate_TagSpecification struct {
	ResourceType string `json:"ResourceType,omitempty"`
	resources.Tagged
}
