package topology

import (
	"sort"

	"github.com/wpstack/wpstack/internal/stack"
	"github.com/wpstack/wpstack/intrinsics"
	"github.com/wpstack/wpstack/resources"
	"github.com/wpstack/wpstack/resources/applicationautoscaling"
	"github.com/wpstack/wpstack/resources/ecs"
	elbv2 "github.com/wpstack/wpstack/resources/elasticloadbalancingv2"
	"github.com/wpstack/wpstack/resources/iam"
	"github.com/wpstack/wpstack/resources/logs"
)

// Service settings that are not configurable.
const (
	ContainerName    = "web"
	ServiceName      = "wordpress-app"
	ContainerCPU     = 256
	ContainerMemory  = 512
	HealthCheckPath  = "/"
	HealthyHTTPCodes = "200-399"
	LogRetentionDays = 30
)

// Container environment variable names.
const (
	EnvDBHost     = "WORDPRESS_DB_HOST"
	EnvDBUser     = "WORDPRESS_DB_USER"
	EnvDBPassword = "WORDPRESS_DB_PASSWORD"
	EnvDBName     = "WORDPRESS_DB_NAME"
)

const ecsScalingRole = "arn:${AWS::Partition}:iam::${AWS::AccountId}:role/aws-service-role/" +
	"ecs.application-autoscaling.amazonaws.com/AWSServiceRoleForApplicationAutoScaling_ECSService"

func (b *builder) declareService() {
	st := b.stack

	logGroup := st.Add(LogGroupID, &logs.LogGroup{
		RetentionInDays: LogRetentionDays,
	})

	execPolicies := []iam.Role_Policy(nil)
	if b.creds.secretArn != nil {
		execPolicies = append(execPolicies, iam.Role_Policy{
			PolicyName: "ReadDatabaseSecret",
			PolicyDocument: intrinsics.NewPolicyDocument(intrinsics.PolicyStatement{
				Effect:   "Allow",
				Action:   []string{"secretsmanager:GetSecretValue", "secretsmanager:DescribeSecret"},
				Resource: intrinsics.Join{Delimiter: "", Values: []any{b.creds.secretArn, "*"}},
			}),
		})
	}
	execRole := st.Add(ExecutionRoleID, &iam.Role{
		Description:              "Pulls the wordpress image and reads the database secret",
		AssumeRolePolicyDocument: intrinsics.NewPolicyDocument(intrinsics.AssumeRoleStatement("ecs-tasks.amazonaws.com")),
		ManagedPolicyArns: intrinsics.Any(
			intrinsics.ManagedPolicyArn("service-role/AmazonECSTaskExecutionRolePolicy"),
		),
		Policies: execPolicies,
	})
	taskRole := st.Add(TaskRoleID, &iam.Role{
		Description:              "wordpress-app task role",
		AssumeRolePolicyDocument: intrinsics.NewPolicyDocument(intrinsics.AssumeRoleStatement("ecs-tasks.amazonaws.com")),
	})

	env := []ecs.TaskDefinition_KeyValuePair{
		{Name: EnvDBHost, Value: b.db.GetAtt("Endpoint.Address")},
		{Name: EnvDBUser, Value: b.cfg.DBUser},
		{Name: EnvDBName, Value: b.cfg.DBName},
	}
	var secrets []ecs.TaskDefinition_Secret
	if b.creds.secretArn != nil {
		secrets = append(secrets, ecs.TaskDefinition_Secret{
			Name:      EnvDBPassword,
			ValueFrom: intrinsics.SecretJSONKey(b.creds.secretArn, SecretPasswordKey),
		})
	} else {
		env = append(env, ecs.TaskDefinition_KeyValuePair{Name: EnvDBPassword, Value: b.creds.password})
	}
	sort.Slice(env, func(i, j int) bool { return env[i].Name < env[j].Name })

	task := st.Add(TaskDefinitionID, &ecs.TaskDefinition{
		NetworkMode:             "bridge",
		RequiresCompatibilities: []string{"EC2"},
		TaskRoleArn:             taskRole.GetAtt("Arn"),
		ExecutionRoleArn:        execRole.GetAtt("Arn"),
		ContainerDefinitions: []ecs.TaskDefinition_ContainerDefinition{{
			Name:      ContainerName,
			Image:     b.cfg.ContainerImage,
			Cpu:       ContainerCPU,
			Memory:    ContainerMemory,
			Essential: resources.Bool(true),
			PortMappings: []ecs.TaskDefinition_PortMapping{{
				ContainerPort: HTTPPort,
				Protocol:      "tcp",
			}},
			Environment: env,
			Secrets:     secrets,
			LogConfiguration: &ecs.TaskDefinition_LogConfiguration{
				LogDriver: "awslogs",
				Options: map[string]any{
					"awslogs-group":         logGroup.Ref(),
					"awslogs-region":        intrinsics.AWS_REGION,
					"awslogs-stream-prefix": ServiceName,
				},
			},
		}},
	})

	b.lb = st.Add(LoadBalancerID, &elbv2.LoadBalancer{
		Type:           "application",
		Scheme:         "internet-facing",
		IpAddressType:  "ipv4",
		Subnets:        b.net.subnetRefs(TierPublic),
		SecurityGroups: intrinsics.Any(b.sg.lb.GetAtt("GroupId")),
		LoadBalancerAttributes: []elbv2.LoadBalancer_LoadBalancerAttribute{
			{Key: "deletion_protection.enabled", Value: "false"},
		},
	}, stack.DependsOn(b.net.igwRoute...))
	b.name(b.lb.ID, "Wordpress LB Ingress")

	targets := st.Add(TargetGroupID, &elbv2.TargetGroup{
		Port:                HTTPPort,
		Protocol:            "HTTP",
		TargetType:          "instance",
		VpcId:               b.net.vpc.Ref(),
		HealthCheckEnabled:  resources.Bool(true),
		HealthCheckPath:     HealthCheckPath,
		HealthCheckProtocol: "HTTP",
		Matcher:             &elbv2.TargetGroup_Matcher{HttpCode: HealthyHTTPCodes},
		TargetGroupAttributes: []elbv2.TargetGroup_TargetGroupAttribute{
			{Key: "deregistration_delay.timeout_seconds", Value: "30"},
		},
	})

	listener := st.Add(ListenerID, &elbv2.Listener{
		LoadBalancerArn: b.lb.Ref(),
		Port:            HTTPPort,
		Protocol:        "HTTP",
		DefaultActions: []elbv2.Listener_Action{{
			Type:           "forward",
			TargetGroupArn: targets.Ref(),
		}},
	})

	st.Add(ServiceID, &ecs.Service{
		ServiceName:                   ServiceName,
		Cluster:                       b.cluster.Ref(),
		TaskDefinition:                task.Ref(),
		DesiredCount:                  b.cfg.MinCapacity,
		LaunchType:                    "EC2",
		SchedulingStrategy:            "REPLICA",
		HealthCheckGracePeriodSeconds: 60,
		LoadBalancers: []ecs.Service_LoadBalancer{{
			ContainerName:  ContainerName,
			ContainerPort:  HTTPPort,
			TargetGroupArn: targets.Ref(),
		}},
		DeploymentConfiguration: &ecs.Service_DeploymentConfiguration{
			MaximumPercent:        200,
			MinimumHealthyPercent: 50,
		},
		EnableECSManagedTags: true,
	}, stack.DependsOn(listener.ID, b.association.ID))

	target := st.Add(ScalableTargetID, &applicationautoscaling.ScalableTarget{
		MinCapacity:       b.cfg.MinCapacity,
		MaxCapacity:       b.cfg.MaxCapacity,
		ResourceId:        intrinsics.Sub{String: "service/${" + ClusterID + "}/${" + ServiceID + ".Name}"},
		RoleARN:           intrinsics.Sub{String: ecsScalingRole},
		ScalableDimension: "ecs:service:DesiredCount",
		ServiceNamespace:  "ecs",
	})

	for _, p := range []struct {
		id, metric string
		target     int
	}{
		{ServiceCPUPolicyID, "ECSServiceAverageCPUUtilization", b.cfg.CPUTargetPercent},
		{ServiceMemoryPolicyID, "ECSServiceAverageMemoryUtilization", b.cfg.MemoryTargetPercent},
	} {
		st.Add(p.id, &applicationautoscaling.ScalingPolicy{
			PolicyName:      p.id,
			PolicyType:      "TargetTrackingScaling",
			ScalingTargetId: target.Ref(),
			TargetTrackingScalingPolicyConfiguration: &applicationautoscaling.ScalingPolicy_TargetTrackingScalingPolicyConfiguration{
				PredefinedMetricSpecification: &applicationautoscaling.ScalingPolicy_PredefinedMetricSpecification{
					PredefinedMetricType: p.metric,
				},
				TargetValue: float64(p.target),
			},
		})
	}
}
