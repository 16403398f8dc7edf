package ui2d

const solidVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec4 aColor;

uniform mat4 uProjection;

out vec4 vColor;

void main() {
	gl_Position = uProjection * vec4(aPos, 1.0);
	vColor = aColor;
}
`

const solidFragmentShader = `
#version 410 core

in vec4 vColor;
out vec4 FragColor;

void main() {
	FragColor = vColor;
}
`

const textVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec2 aTexCoord;
layout (location = 2) in vec4 aColor;

uniform mat4 uProjection;

out vec2 vTexCoord;
out vec4 vColor;

void main() {
	gl_Position = uProjection * vec4(aPos, 1.0);
	vTexCoord = aTexCoord;
	vColor = aColor;
}
`

const textFragmentShader = `
#version 410 core

uniform sampler2D uTexture;

in vec2 vTexCoord;
in vec4 vColor;
out vec4 FragColor;

void main() {
	float alpha = texture(uTexture, vTexCoord).a;
	FragColor = vec4(vColor.rgb, vColor.a * alpha);
}
`

const sceneVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec2 aTexCoord;

uniform mat4 uProjection;

out vec2 vTexCoord;

void main() {
	gl_Position = uProjection * vec4(aPos, 1.0);
	vTexCoord = aTexCoord;
}
`

// The viewport is rendered in linear space; encode to sRGB on blit.
const sceneFragmentShader = `
#version 410 core

uniform sampler2D uTexture;

in vec2 vTexCoord;
out vec4 FragColor;

void main() {
	vec4 color = texture(uTexture, vTexCoord);
	color.rgb = clamp(pow(color.rgb, vec3(1.0 / 2.2)), 0.0, 1.0);
	FragColor = vec4(color.rgb, 1.0);
}
`
