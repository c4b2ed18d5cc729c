// Package elasticloadbalancingv2 declares the AWS::ElasticLoadBalancingV2
// resource types used by the stack.
package elasticloadbalancingv2

import (
	"github.com/wpstack/wpstack/resources"
)

// LoadBalancer represents AWS::ElasticLoadBalancingV2::LoadBalancer.
//
// Attributes: DNSName, CanonicalHostedZoneID, LoadBalancerFullName.
type LoadBalancer struct {
	resources.Tagged
	Name                   string                               `json:"Name,omitempty"`
	Type                   string                               `json:"Type,omitempty"`
	Scheme                 string                               `json:"Scheme,omitempty"`
	IpAddressType          string                               `json:"IpAddressType,omitempty"`
	Subnets                []any                                `json:"Subnets,omitempty"`
	SecurityGroups         []any                                `json:"SecurityGroups,omitempty"`
	LoadBalancerAttributes []LoadBalancer_LoadBalancerAttribute `json:"LoadBalancerAttributes,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r LoadBalancer) ResourceType() string {
	return "AWS::ElasticLoadBalancingV2::LoadBalancer"
}

// LoadBalancer_LoadBalancerAttribute is a key/value load balancer attribute.
type LoadBalancer_LoadBalancerAttribute struct {
	Key   string `json:"Key,omitempty"`
	Value string `json:"Value,omitempty"`
}

// TargetGroup represents AWS::ElasticLoadBalancingV2::TargetGroup.
type TargetGroup struct {
	resources.Tagged
	Port                       int                                `json:"Port,omitempty"`
	Protocol                   string                             `json:"Protocol,omitempty"`
	TargetType                 string                             `json:"TargetType,omitempty"`
	VpcId                      any                                `json:"VpcId,omitempty"`
	HealthCheckEnabled         *bool                              `json:"HealthCheckEnabled,omitempty"`
	HealthCheckPath            string                             `json:"HealthCheckPath,omitempty"`
	HealthCheckProtocol        string                             `json:"HealthCheckProtocol,omitempty"`
	HealthCheckIntervalSeconds int                                `json:"HealthCheckIntervalSeconds,omitempty"`
	HealthyThresholdCount      int                                `json:"HealthyThresholdCount,omitempty"`
	UnhealthyThresholdCount    int                                `json:"UnhealthyThresholdCount,omitempty"`
	Matcher                    *TargetGroup_Matcher               `json:"Matcher,omitempty"`
	TargetGroupAttributes      []TargetGroup_TargetGroupAttribute `json:"TargetGroupAttributes,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r TargetGroup) ResourceType() string {
	return "AWS::ElasticLoadBalancingV2::TargetGroup"
}

// TargetGroup_Matcher lists the HTTP codes counted as healthy.
type TargetGroup_Matcher struct {
	HttpCode string `json:"HttpCode,omitempty"`
}

// TargetGroup_TargetGroupAttribute is a key/value target group attribute.
type TargetGroup_TargetGroupAttribute struct {
	Key   string `json:"Key,omitempty"`
	Value string `json:"Value,omitempty"`
}

// Listener represents AWS::ElasticLoadBalancingV2::Listener.
type Listener struct {
	LoadBalancerArn any               `json:"LoadBalancerArn,omitempty"`
	Port            int               `json:"Port,omitempty"`
	Protocol        string            `json:"Protocol,omitempty"`
	DefaultActions  []Listener_Action `json:"DefaultActions,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r Listener) ResourceType() string {
	return "AWS::ElasticLoadBalancingV2::Listener"
}

// Listener_Action is a listener default action.
type Listener_Action struct {
	Type           string `json:"Type,omitempty"`
	TargetGroupArn any    `json:"TargetGroupArn,omitempty"`
}
