package topology

import "fmt"

// Logical IDs of the singleton resources in the WordPress stack.
const (
	VpcID                 = "Vpc"
	InternetGatewayID     = "InternetGateway"
	GatewayAttachmentID   = "InternetGatewayAttachment"
	LoadBalancerSGID      = "LoadBalancerSecurityGroup"
	LoadBalancerEgressID  = "LoadBalancerEgressToApp"
	AppSGID               = "AppSecurityGroup"
	AppIngressID          = "AppIngressFromLoadBalancer"
	DatabaseSGID          = "DatabaseSecurityGroup"
	DatabaseIngressID     = "DatabaseIngressFromApp"
	DBSubnetGroupID       = "DatabaseSubnetGroup"
	DatabaseSecretID      = "DatabaseSecret"
	SecretAttachmentID    = "DatabaseSecretAttachment"
	DatabaseID            = "Database"
	InstanceRoleID        = "InstanceRole"
	InstanceProfileID     = "InstanceProfile"
	AmiParameterID        = "EcsAmiId"
	LaunchTemplateID      = "LaunchTemplate"
	AutoScalingGroupID    = "AutoScalingGroup"
	HostCPUPolicyID       = "AutoScalingGroupCpuScaling"
	CapacityProviderID    = "CapacityProvider"
	ClusterID             = "Cluster"
	ClusterAssociationID  = "ClusterCapacityProviders"
	LogGroupID            = "ServiceLogGroup"
	ExecutionRoleID       = "TaskExecutionRole"
	TaskRoleID            = "TaskRole"
	TaskDefinitionID      = "TaskDefinition"
	LoadBalancerID        = "LoadBalancer"
	TargetGroupID         = "TargetGroup"
	ListenerID            = "HttpListener"
	ServiceID             = "Service"
	ScalableTargetID      = "ServiceScalableTarget"
	ServiceCPUPolicyID    = "ServiceCpuScaling"
	ServiceMemoryPolicyID = "ServiceMemoryScaling"
	HostedZoneID          = "HostedZone"
	RecordID              = "AppRecord"
)

// Output names.
const (
	OutputLoadBalancerDNS  = "LoadBalancerDNS"
	OutputServiceURL       = "ServiceURL"
	OutputDatabaseEndpoint = "DatabaseEndpoint"
	OutputNameServers      = "HostedZoneNameServers"
	OutputDatabaseSecret   = "DatabaseSecretArn"
)

// Tier is a subnet tier.
type Tier string

// subnet tiers, in allocation order
const (
	TierPublic   Tier = "Public"
	TierPrivate  Tier = "Private"
	TierIsolated Tier = "Isolated"
)

// Tiers lists the subnet tiers in allocation order.
var Tiers = []Tier{TierPublic, TierPrivate, TierIsolated}

// SubnetID returns the logical ID of the subnet of tier t in zone index az (0-based).
func SubnetID(t Tier, az int) string {
	return fmt.Sprintf("%sSubnet%d", t, az+1)
}

// RouteTableID returns the logical ID of a subnet's route table.
func RouteTableID(t Tier, az int) string {
	return fmt.Sprintf("%sSubnet%dRouteTable", t, az+1)
}

// RouteTableAssociationID returns the logical ID of a subnet's route table association.
func RouteTableAssociationID(t Tier, az int) string {
	return fmt.Sprintf("%sSubnet%dRouteTableAssociation", t, az+1)
}

// DefaultRouteID returns the logical ID of a subnet's 0.0.0.0/0 route.
func DefaultRouteID(t Tier, az int) string {
	return fmt.Sprintf("%sSubnet%dDefaultRoute", t, az+1)
}

// NatEipID returns the logical ID of the n-th NAT gateway's elastic IP.
func NatEipID(n int) string {
	return fmt.Sprintf("NatEip%d", n+1)
}

// NatGatewayID returns the logical ID of the n-th NAT gateway.
func NatGatewayID(n int) string {
	return fmt.Sprintf("NatGateway%d", n+1)
}
