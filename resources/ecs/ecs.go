// Package ecs declares the AWS::ECS resource types used by the stack.
package ecs

import (
	"github.com/wpstack/wpstack/resources"
)

// Cluster represents AWS::ECS::Cluster.
type Cluster struct {
	resources.Tagged
	ClusterName     string                    `json:"ClusterName,omitempty"`
	ClusterSettings []Cluster_ClusterSettings `json:"ClusterSettings,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r Cluster) ResourceType() string { return "AWS::ECS::Cluster" }

// Cluster_ClusterSettings is a cluster-level setting such as containerInsights.
type Cluster_ClusterSettings struct {
	Name  string `json:"Name,omitempty"`
	Value string `json:"Value,omitempty"`
}

// CapacityProvider represents AWS::ECS::CapacityProvider.
type CapacityProvider struct {
	resources.Tagged
	AutoScalingGroupProvider *CapacityProvider_AutoScalingGroupProvider `json:"AutoScalingGroupProvider,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r CapacityProvider) ResourceType() string { return "AWS::ECS::CapacityProvider" }

// CapacityProvider_AutoScalingGroupProvider binds the provider to an ASG.
type CapacityProvider_AutoScalingGroupProvider struct {
	AutoScalingGroupArn          any                              `json:"AutoScalingGroupArn,omitempty"`
	ManagedScaling               *CapacityProvider_ManagedScaling `json:"ManagedScaling,omitempty"`
	ManagedTerminationProtection string                           `json:"ManagedTerminationProtection,omitempty"`
}

// CapacityProvider_ManagedScaling lets ECS drive the ASG size.
type CapacityProvider_ManagedScaling struct {
	Status         string `json:"Status,omitempty"`
	TargetCapacity int    `json:"TargetCapacity,omitempty"`
}

// ClusterCapacityProviderAssociations represents AWS::ECS::ClusterCapacityProviderAssociations.
type ClusterCapacityProviderAssociations struct {
	Cluster                         any                                                            `json:"Cluster,omitempty"`
	CapacityProviders               []any                                                          `json:"CapacityProviders,omitempty"`
	DefaultCapacityProviderStrategy []ClusterCapacityProviderAssociations_CapacityProviderStrategy `json:"DefaultCapacityProviderStrategy,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r ClusterCapacityProviderAssociations) ResourceType() string {
	return "AWS::ECS::ClusterCapacityProviderAssociations"
}

// ClusterCapacityProviderAssociations_CapacityProviderStrategy weights a provider.
type ClusterCapacityProviderAssociations_CapacityProviderStrategy struct {
	CapacityProvider any `json:"CapacityProvider,omitempty"`
	Weight           int `json:"Weight,omitempty"`
	Base             int `json:"Base,omitempty"`
}

// TaskDefinition represents AWS::ECS::TaskDefinition.
type TaskDefinition struct {
	resources.Tagged
	Family                  any                                  `json:"Family,omitempty"`
	NetworkMode             string                               `json:"NetworkMode,omitempty"`
	RequiresCompatibilities []string                             `json:"RequiresCompatibilities,omitempty"`
	TaskRoleArn             any                                  `json:"TaskRoleArn,omitempty"`
	ExecutionRoleArn        any                                  `json:"ExecutionRoleArn,omitempty"`
	ContainerDefinitions    []TaskDefinition_ContainerDefinition `json:"ContainerDefinitions,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r TaskDefinition) ResourceType() string { return "AWS::ECS::TaskDefinition" }

// TaskDefinition_ContainerDefinition describes one container.
type TaskDefinition_ContainerDefinition struct {
	Name             string                           `json:"Name,omitempty"`
	Image            string                           `json:"Image,omitempty"`
	Cpu              int                              `json:"Cpu,omitempty"`
	Memory           int                              `json:"Memory,omitempty"`
	Essential        *bool                            `json:"Essential,omitempty"`
	PortMappings     []TaskDefinition_PortMapping     `json:"PortMappings,omitempty"`
	Environment      []TaskDefinition_KeyValuePair    `json:"Environment,omitempty"`
	Secrets          []TaskDefinition_Secret          `json:"Secrets,omitempty"`
	LogConfiguration *TaskDefinition_LogConfiguration `json:"LogConfiguration,omitempty"`
}

// TaskDefinition_PortMapping maps a container port. A zero HostPort is
// rendered as absent, which requests a dynamic host port in bridge mode.
type TaskDefinition_PortMapping struct {
	ContainerPort int    `json:"ContainerPort,omitempty"`
	HostPort      int    `json:"HostPort,omitempty"`
	Protocol      string `json:"Protocol,omitempty"`
}

// TaskDefinition_KeyValuePair is a plain environment variable.
type TaskDefinition_KeyValuePair struct {
	Name  string `json:"Name,omitempty"`
	Value any    `json:"Value,omitempty"`
}

// TaskDefinition_Secret injects a secret value as an environment variable.
type TaskDefinition_Secret struct {
	Name      string `json:"Name,omitempty"`
	ValueFrom any    `json:"ValueFrom,omitempty"`
}

// TaskDefinition_LogConfiguration configures the container log driver.
type TaskDefinition_LogConfiguration struct {
	LogDriver string         `json:"LogDriver,omitempty"`
	Options   map[string]any `json:"Options,omitempty"`
}

// Service represents AWS::ECS::Service.
//
// Attributes: Name, ServiceArn.
type Service struct {
	resources.Tagged
	ServiceName                   string                           `json:"ServiceName,omitempty"`
	Cluster                       any                              `json:"Cluster,omitempty"`
	TaskDefinition                any                              `json:"TaskDefinition,omitempty"`
	DesiredCount                  int                              `json:"DesiredCount,omitempty"`
	LaunchType                    string                           `json:"LaunchType,omitempty"`
	SchedulingStrategy            string                           `json:"SchedulingStrategy,omitempty"`
	HealthCheckGracePeriodSeconds int                              `json:"HealthCheckGracePeriodSeconds,omitempty"`
	LoadBalancers                 []Service_LoadBalancer           `json:"LoadBalancers,omitempty"`
	DeploymentConfiguration       *Service_DeploymentConfiguration `json:"DeploymentConfiguration,omitempty"`
	EnableECSManagedTags          bool                             `json:"EnableECSManagedTags,omitempty"`
}

// ResourceType returns the CloudFormation type name.
func (r Service) ResourceType() string { return "AWS::ECS::Service" }

// Service_LoadBalancer registers a container port with a target group.
type Service_LoadBalancer struct {
	ContainerName  string `json:"ContainerName,omitempty"`
	ContainerPort  int    `json:"ContainerPort,omitempty"`
	TargetGroupArn any    `json:"TargetGroupArn,omitempty"`
}

// Service_DeploymentConfiguration bounds task replacement during deploys.
type Service_DeploymentConfiguration struct {
	MaximumPercent        int `json:"MaximumPercent,omitempty"`
	MinimumHealthyPercent int `json:"MinimumHealthyPercent,omitempty"`
}
