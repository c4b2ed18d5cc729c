package topology

import (
	"strconv"

	wpstack "github.com/wpstack/wpstack"
	"github.com/wpstack/wpstack/internal/stack"
	"github.com/wpstack/wpstack/intrinsics"
	"github.com/wpstack/wpstack/resources/autoscaling"
	"github.com/wpstack/wpstack/resources/ec2"
	"github.com/wpstack/wpstack/resources/ecs"
	"github.com/wpstack/wpstack/resources/iam"
)

// Compute settings that are not configurable.
const (
	InstanceType         = "t2.micro"
	ClusterName          = "Wordpress-Cluster"
	AutoScalingGroupName = "Wordpress App ASG"
	HostCPUTargetPercent = 50
	// EcsAmiParameter is the public SSM parameter holding the current
	// ECS-optimized Amazon Linux 2 AMI.
	EcsAmiParameter = "/aws/service/ecs/optimized-ami/amazon-linux-2/recommended/image_id"
)

const userDataScript = "#!/bin/bash\necho ECS_CLUSTER=${" + ClusterID + "} >> /etc/ecs/ecs.config\n"

func (b *builder) declareCompute() {
	st := b.stack

	b.cluster = st.Add(ClusterID, &ecs.Cluster{
		ClusterName: ClusterName,
	})

	role := st.Add(InstanceRoleID, &iam.Role{
		Description:              "ECS container instance role",
		AssumeRolePolicyDocument: intrinsics.NewPolicyDocument(intrinsics.AssumeRoleStatement("ec2.amazonaws.com")),
		ManagedPolicyArns: intrinsics.Any(
			intrinsics.ManagedPolicyArn("service-role/AmazonEC2ContainerServiceforEC2Role"),
			intrinsics.ManagedPolicyArn("AmazonSSMManagedInstanceCore"),
		),
	})
	profile := st.Add(InstanceProfileID, &iam.InstanceProfile{
		Roles: intrinsics.Any(role.Ref()),
	})

	ami := st.AddParameter(AmiParameterID, wpstack.Parameter{
		Type:        "AWS::SSM::Parameter::Value<AWS::EC2::Image::Id>",
		Description: "ECS-optimized Amazon Linux 2 AMI",
		Default:     EcsAmiParameter,
	})

	lt := st.Add(LaunchTemplateID, &ec2.LaunchTemplate{
		LaunchTemplateData: &ec2.LaunchTemplate_LaunchTemplateData{
			ImageId:      ami,
			InstanceType: InstanceType,
			IamInstanceProfile: &ec2.LaunchTemplate_IamInstanceProfile{
				Arn: profile.GetAtt("Arn"),
			},
			SecurityGroupIds: intrinsics.Any(b.sg.app.GetAtt("GroupId")),
			UserData:         intrinsics.Base64{Value: intrinsics.Sub{String: userDataScript}},
			// Bridge-mode containers need a second hop to reach IMDSv2.
			MetadataOptions: &ec2.LaunchTemplate_MetadataOptions{
				HttpTokens:              "required",
				HttpPutResponseHopLimit: 2,
			},
		},
	}, stack.DependsOn(role.ID))

	minSize := strconv.Itoa(b.cfg.MinCapacity)
	asg := &autoscaling.AutoScalingGroup{
		AutoScalingGroupName: AutoScalingGroupName,
		MinSize:              minSize,
		MaxSize:              strconv.Itoa(b.cfg.MaxCapacity),
		DesiredCapacity:      minSize,
		LaunchTemplate: &autoscaling.AutoScalingGroup_LaunchTemplateSpecification{
			LaunchTemplateId: lt.Ref(),
			Version:          lt.GetAtt("LatestVersionNumber"),
		},
		VPCZoneIdentifier: b.net.subnetRefs(TierPrivate),
		// Required by managed termination protection.
		NewInstancesProtectedFromScaleIn: true,
	}
	asg.SetTag("Name", AutoScalingGroupName)
	b.asg = st.Add(AutoScalingGroupID, asg,
		stack.DependsOn(b.net.natRoute...),
		stack.UpdatePolicy(map[string]any{
			"AutoScalingRollingUpdate": map[string]any{
				"MaxBatchSize":          1,
				"MinInstancesInService": 0,
			},
			"AutoScalingScheduledAction": map[string]any{
				"IgnoreUnmodifiedGroupSizeProperties": true,
			},
		}),
	)

	st.Add(HostCPUPolicyID, &autoscaling.ScalingPolicy{
		AutoScalingGroupName: b.asg.Ref(),
		PolicyType:           "TargetTrackingScaling",
		TargetTrackingConfiguration: &autoscaling.ScalingPolicy_TargetTrackingConfiguration{
			PredefinedMetricSpecification: &autoscaling.ScalingPolicy_PredefinedMetricSpecification{
				PredefinedMetricType: "ASGAverageCPUUtilization",
			},
			TargetValue: HostCPUTargetPercent,
		},
	})

	provider := st.Add(CapacityProviderID, &ecs.CapacityProvider{
		AutoScalingGroupProvider: &ecs.CapacityProvider_AutoScalingGroupProvider{
			AutoScalingGroupArn: b.asg.Ref(),
			ManagedScaling: &ecs.CapacityProvider_ManagedScaling{
				Status:         "ENABLED",
				TargetCapacity: 100,
			},
			ManagedTerminationProtection: "ENABLED",
		},
	})

	b.association = st.Add(ClusterAssociationID, &ecs.ClusterCapacityProviderAssociations{
		Cluster:           b.cluster.Ref(),
		CapacityProviders: intrinsics.Any(provider.Ref()),
		DefaultCapacityProviderStrategy: []ecs.ClusterCapacityProviderAssociations_CapacityProviderStrategy{{
			CapacityProvider: provider.Ref(),
			Weight:           1,
		}},
	})
}
